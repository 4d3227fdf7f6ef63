package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/response"
)

type attendanceService interface {
	Record(ctx context.Context, req service.RecordAttendanceRequest, actor models.Actor) (*models.Attendance, error)
	UpdateByUser(ctx context.Context, userID string, req service.UpdateAttendanceRequest) (int64, error)
	ClearAll(ctx context.Context, actor models.Actor) (int64, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error)
	Export(ctx context.Context, lessonID, rawFormat string, actor models.Actor) (*service.AttendanceExport, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List returns attendance marks, optionally narrowed to a lesson or student.
func (h *AttendanceHandler) List(c *gin.Context) {
	lessonID, err := optionalID(c, "lessonId")
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := optionalID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size := pageParams(c)
	filter := models.AttendanceFilter{
		LessonID:  lessonID,
		StudentID: studentID,
		Page:      page,
		PageSize:  size,
	}
	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "attendance retrieved", records, pagination)
}

// Record marks a student present or absent for a lesson inside its time window.
func (h *AttendanceHandler) Record(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.RecordAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.Record(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "attendance recorded", record)
}

// UpdateByUser rewrites every mark recorded by the user in the path.
func (h *AttendanceHandler) UpdateByUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	affected, err := h.attendance.UpdateByUser(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "attendance updated", gin.H{"updated": affected})
}

// ClearAll deletes every attendance mark.
func (h *AttendanceHandler) ClearAll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	removed, err := h.attendance.ClearAll(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "attendance deleted", gin.H{"deleted": removed})
}

// Export downloads the attendance sheet of a lesson as CSV or PDF.
func (h *AttendanceHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.attendance.Export(c.Request.Context(), id, c.Query("format"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, out.Filename, out.ContentType, out.Payload)
}
