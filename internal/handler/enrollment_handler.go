package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error)
	Archive(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error)
	Enroll(ctx context.Context, req service.EnrollStudentRequest) (*models.StudentGroup, error)
	Transfer(ctx context.Context, id string, req service.TransferEnrollmentRequest) (*models.StudentGroup, error)
	Unenroll(ctx context.Context, id string) error
}

// EnrollmentHandler exposes student-group membership endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

func (h *EnrollmentHandler) List(c *gin.Context) {
	filter, ok := enrollmentFilterFrom(c)
	if !ok {
		return
	}
	items, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "enrollments retrieved", items, pagination)
}

func (h *EnrollmentHandler) Archive(c *gin.Context) {
	filter, ok := enrollmentFilterFrom(c)
	if !ok {
		return
	}
	items, pagination, err := h.enrollments.Archive(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "archived enrollments retrieved", items, pagination)
}

func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollStudentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "student enrolled", enrollment)
}

// Transfer moves the enrollment into the group named in the body.
func (h *EnrollmentHandler) Transfer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.TransferEnrollmentRequest
	if !bindJSON(c, &req, "invalid transfer payload") {
		return
	}
	enrollment, err := h.enrollments.Transfer(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "enrollment transferred", enrollment)
}

func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "enrollment cancelled", nil)
}

func enrollmentFilterFrom(c *gin.Context) (models.EnrollmentFilter, bool) {
	studentID, err := optionalID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return models.EnrollmentFilter{}, false
	}
	groupID, err := optionalID(c, "groupId")
	if err != nil {
		response.Error(c, err)
		return models.EnrollmentFilter{}, false
	}
	page, size := pageParams(c)
	return models.EnrollmentFilter{
		StudentID: studentID,
		GroupID:   groupID,
		Page:      page,
		PageSize:  size,
	}, true
}
