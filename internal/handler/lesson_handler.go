package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/response"
)

type lessonService interface {
	Create(ctx context.Context, req service.CreateLessonRequest, actor models.Actor) (*models.Lesson, error)
	Get(ctx context.Context, id string, actor models.Actor) (*models.Lesson, error)
	List(ctx context.Context, filter service.LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error)
	Archive(ctx context.Context, filter service.LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error)
	Delete(ctx context.Context, id string) error
}

// LessonHandler exposes lesson endpoints.
type LessonHandler struct {
	lessons lessonService
}

// NewLessonHandler constructs LessonHandler.
func NewLessonHandler(lessons lessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

func (h *LessonHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, ok := lessonFilterFrom(c)
	if !ok {
		return
	}
	lessons, pagination, err := h.lessons.List(c.Request.Context(), filter, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "lessons retrieved", lessons, pagination)
}

func (h *LessonHandler) Archive(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, ok := lessonFilterFrom(c)
	if !ok {
		return
	}
	lessons, pagination, err := h.lessons.Archive(c.Request.Context(), filter, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "archived lessons retrieved", lessons, pagination)
}

func (h *LessonHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	lesson, err := h.lessons.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateLessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "lesson created", lesson)
}

// Delete soft deletes the lesson.
func (h *LessonHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.lessons.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "lesson deleted", nil)
}

func lessonFilterFrom(c *gin.Context) (service.LessonFilter, bool) {
	groupID, err := optionalID(c, "groupId")
	if err != nil {
		response.Error(c, err)
		return service.LessonFilter{}, false
	}
	page, size := pageParams(c)
	return service.LessonFilter{GroupID: groupID, Page: page, PageSize: size}, true
}
