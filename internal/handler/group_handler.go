package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/educenter-api/internal/middleware"
	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/response"
)

type groupService interface {
	Create(ctx context.Context, req service.CreateGroupRequest) (*models.Group, error)
	Update(ctx context.Context, id string, req service.UpdateGroupRequest) (*models.Group, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string, actor models.Actor) (*models.GroupDetail, error)
	Students(ctx context.Context, id string, actor models.Actor) ([]models.Student, error)
	List(ctx context.Context, filter models.GroupFilter) (*service.GroupPage, bool, error)
	Archive(ctx context.Context, filter models.GroupFilter) (*service.GroupPage, error)
}

// GroupHandler exposes group scheduling endpoints.
type GroupHandler struct {
	groups groupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups groupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List returns active groups filtered by groupName and maxStudent.
func (h *GroupHandler) List(c *gin.Context) {
	filter, ok := groupFilterFrom(c)
	if !ok {
		return
	}
	page, hit, err := h.groups.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, "groups retrieved", page.Items, page.Pagination, middleware.ExtractMeta(c))
}

// Archive returns deactivated groups.
func (h *GroupHandler) Archive(c *gin.Context) {
	filter, ok := groupFilterFrom(c)
	if !ok {
		return
	}
	page, err := h.groups.Archive(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "archived groups retrieved", page.Items, page.Pagination)
}

func (h *GroupHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	group, err := h.groups.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "group retrieved", group)
}

// Students lists the active members of a group.
func (h *GroupHandler) Students(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	students, err := h.groups.Students(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "group students retrieved", students)
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "group created", group)
}

func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateGroupRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}
	group, err := h.groups.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "group updated", group)
}

// Delete deactivates the group and cancels its enrollments.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.groups.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "group deleted", nil)
}

func groupFilterFrom(c *gin.Context) (models.GroupFilter, bool) {
	maxStudent, err := optionalInt(c, "maxStudent")
	if err != nil {
		response.Error(c, err)
		return models.GroupFilter{}, false
	}
	page, size := pageParams(c)
	return models.GroupFilter{
		Name:       c.Query("groupName"),
		MaxStudent: maxStudent,
		Page:       page,
		PageSize:   size,
	}, true
}
