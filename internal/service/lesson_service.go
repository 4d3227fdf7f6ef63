package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/authz"
	"github.com/noah-isme/educenter-api/internal/models"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	List(ctx context.Context, status models.Status, groupID, teacherID string, page, pageSize int) ([]models.Lesson, int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	UpdateStatus(ctx context.Context, id string, status models.Status) error
}

type groupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// CreateLessonRequest opens a lesson occurrence for a group.
type CreateLessonRequest struct {
	GroupID     string  `json:"group_id" validate:"required,uuid"`
	Topic       string  `json:"topic" validate:"required,max=200"`
	Description *string `json:"description"`
}

// LessonFilter narrows lesson listings.
type LessonFilter struct {
	GroupID  string
	Page     int
	PageSize int
}

// LessonService manages lesson occurrences of groups.
type LessonService struct {
	repo      lessonRepository
	groups    groupReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs LessonService.
func NewLessonService(repo lessonRepository, groups groupReader, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, groups: groups, validator: validate, logger: logger}
}

// Create records a lesson for an active group. Teachers may only open lessons for their own groups.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest, actor models.Actor) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load group")
	}
	if group == nil || group.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	if !authz.CanManageGroup(actor, group.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your group")
	}

	lesson := &models.Lesson{
		GroupID:     group.ID,
		Topic:       strings.TrimSpace(req.Topic),
		Description: req.Description,
		Status:      models.StatusActive,
	}
	actorID := actor.ID
	if authz.IsTeacher(actor) {
		lesson.TeacherID = &actorID
	} else {
		lesson.UserID = &actorID
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Internal(err, "failed to create lesson")
	}
	s.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("group_id", group.ID))
	return lesson, nil
}

// Get returns an active lesson visible to the actor.
func (s *LessonService) Get(ctx context.Context, id string, actor models.Actor) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	if lesson == nil || lesson.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	if authz.IsTeacher(actor) {
		group, err := s.groups.FindByID(ctx, lesson.GroupID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load group")
		}
		if !authz.OwnsGroup(actor, group.TeacherID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not your lesson")
		}
	}
	return lesson, nil
}

// List returns active lessons; teachers only see lessons of their own groups.
func (s *LessonService) List(ctx context.Context, filter LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error) {
	return s.list(ctx, models.StatusActive, filter, actor)
}

// Archive returns soft deleted lessons.
func (s *LessonService) Archive(ctx context.Context, filter LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error) {
	return s.list(ctx, models.StatusInactive, filter, actor)
}

func (s *LessonService) list(ctx context.Context, status models.Status, filter LessonFilter, actor models.Actor) ([]models.Lesson, *models.Pagination, error) {
	teacherID := ""
	if authz.IsTeacher(actor) {
		teacherID = actor.ID
	}
	lessons, total, err := s.repo.List(ctx, status, filter.GroupID, teacherID, filter.Page, filter.PageSize)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Delete soft deletes a lesson; deleting twice is rejected.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Internal(err, "failed to load lesson")
	}
	if lesson.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrBadRequest, "lesson already deleted")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.StatusInactive); err != nil {
		return appErrors.Internal(err, "failed to delete lesson")
	}
	s.logger.Info("lesson deleted", zap.String("lesson_id", id))
	return nil
}
