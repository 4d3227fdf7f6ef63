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

type lessonServiceMock struct {
	createErr  error
	deleteErr  error
	lastCreate service.CreateLessonRequest
	lastFilter service.LessonFilter
	lastActor  models.Actor
}

func (m *lessonServiceMock) Create(ctx context.Context, req service.CreateLessonRequest, actor models.Actor) (*models.Lesson, error) {
	m.lastCreate, m.lastActor = req, actor
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Lesson{ID: "lesson-1", GroupID: req.GroupID, Topic: req.Topic}, nil
}

func (m *lessonServiceMock) Get(ctx context.Context, id string, actor models.Actor) (*models.Lesson, error) {
	return &models.Lesson{ID: id}, nil
}

func (m *lessonServiceMock) List(ctx context.Context, filter service.LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error) {
	m.lastFilter, m.lastActor = filter, actor
	return []models.Lesson{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *lessonServiceMock) Archive(ctx context.Context, filter service.LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error) {
	return m.List(ctx, filter, actor)
}

func (m *lessonServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func TestLessonHandlerCreateForbidden(t *testing.T) {
	mockSvc := &lessonServiceMock{createErr: appErrors.Clone(appErrors.ErrForbidden, "not your group")}
	handler := NewLessonHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/lessons", []byte(`{"group_id":"g-1","topic":"Listening"}`))
	asTeacher(c)
	handler.Create(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "g-1", mockSvc.lastCreate.GroupID)
	assert.Equal(t, "teacher-1", mockSvc.lastActor.ID)
}

func TestLessonHandlerListByGroup(t *testing.T) {
	mockSvc := &lessonServiceMock{}
	handler := NewLessonHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/lessons?groupId="+groupID+"&page=3", nil)
	asTeacher(c)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, groupID, mockSvc.lastFilter.GroupID)
	assert.Equal(t, 3, mockSvc.lastFilter.Page)
}

func TestLessonHandlerDeleteTwice(t *testing.T) {
	handler := NewLessonHandler(&lessonServiceMock{deleteErr: appErrors.Clone(appErrors.ErrBadRequest, "lesson already deleted")})

	c, w := newTestContext(http.MethodDelete, "/lessons/"+lessonID, nil)
	c.Params = gin.Params{{Key: "id", Value: lessonID}}
	asAdmin(c)
	handler.Delete(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "lesson already deleted", decodeEnvelope(t, w)["message"])
}

func TestLessonHandlerRejectsMalformedIDs(t *testing.T) {
	mockSvc := &lessonServiceMock{}
	handler := NewLessonHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/lessons?groupId=g-3", nil)
	asTeacher(c)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "groupId must be a uuid", decodeEnvelope(t, w)["message"])
	assert.Equal(t, service.LessonFilter{}, mockSvc.lastFilter)

	c, w = newTestContext(http.MethodGet, "/lessons/lesson-42", nil)
	c.Params = gin.Params{{Key: "id", Value: "lesson-42"}}
	asTeacher(c)
	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", decodeEnvelope(t, w)["message"])
}
