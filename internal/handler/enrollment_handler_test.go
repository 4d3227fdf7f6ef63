package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
)

type enrollmentServiceMock struct {
	enrollErr    error
	lastFilter   models.EnrollmentFilter
	transferID   string
	transferTo   string
	unenrolledID string
}

func (m *enrollmentServiceMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.StudentGroup{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *enrollmentServiceMock) Archive(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error) {
	return m.List(ctx, filter)
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req service.EnrollStudentRequest) (*models.StudentGroup, error) {
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return &models.StudentGroup{ID: "e-1", StudentID: req.StudentID, GroupID: req.GroupID}, nil
}

func (m *enrollmentServiceMock) Transfer(ctx context.Context, id string, req service.TransferEnrollmentRequest) (*models.StudentGroup, error) {
	m.transferID, m.transferTo = id, req.GroupID
	return &models.StudentGroup{ID: id, GroupID: req.GroupID}, nil
}

func (m *enrollmentServiceMock) Unenroll(ctx context.Context, id string) error {
	m.unenrolledID = id
	return nil
}

func TestEnrollmentHandlerListFilters(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/student-groups?groupId="+groupID+"&studentId="+studentID+"&limit=50", nil)
	asAdmin(c)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, groupID, mockSvc.lastFilter.GroupID)
	assert.Equal(t, studentID, mockSvc.lastFilter.StudentID)
	assert.Equal(t, 50, mockSvc.lastFilter.PageSize)
}

func TestEnrollmentHandlerCreateGroupFull(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentServiceMock{enrollErr: appErrors.Clone(appErrors.ErrBadRequest, "group is full")})

	c, w := newTestContext(http.MethodPost, "/student-groups", []byte(`{"student_id":"s-1","group_id":"g-1"}`))
	asAdmin(c)
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "group is full", decodeEnvelope(t, w)["message"])
}

func TestEnrollmentHandlerTransferAndDelete(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := newTestContext(http.MethodPut, "/student-groups/"+enrollmentID, []byte(`{"group_id":"g-2"}`))
	c.Params = gin.Params{{Key: "id", Value: enrollmentID}}
	asAdmin(c)
	handler.Transfer(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, enrollmentID, mockSvc.transferID)
	assert.Equal(t, "g-2", mockSvc.transferTo)

	c, w = newTestContext(http.MethodDelete, "/student-groups/"+enrollmentID, nil)
	c.Params = gin.Params{{Key: "id", Value: enrollmentID}}
	asAdmin(c)
	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, enrollmentID, mockSvc.unenrolledID)
}
