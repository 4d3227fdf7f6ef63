package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/response"
)

type homeworkService interface {
	Create(ctx context.Context, req service.CreateHomeworkRequest, actor models.Actor) (*models.Homework, error)
	List(ctx context.Context, filter models.HomeworkFilter, actor models.Actor) ([]models.Homework, *models.Pagination, error)
}

// HomeworkHandler exposes homework endpoints.
type HomeworkHandler struct {
	homework homeworkService
}

// NewHomeworkHandler constructs HomeworkHandler.
func NewHomeworkHandler(homework homeworkService) *HomeworkHandler {
	return &HomeworkHandler{homework: homework}
}

func (h *HomeworkHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lessonID, err := optionalID(c, "lessonId")
	if err != nil {
		response.Error(c, err)
		return
	}
	groupID, err := optionalID(c, "groupId")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.homework.List(c.Request.Context(), models.HomeworkFilter{
		LessonID: lessonID,
		GroupID:  groupID,
		Page:     page,
		PageSize: size,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "homework retrieved", items, pagination)
}

// Create records homework for a lesson.
func (h *HomeworkHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateHomeworkRequest
	if !bindJSON(c, &req, "invalid homework payload") {
		return
	}
	homework, err := h.homework.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "homework recorded", homework)
}
