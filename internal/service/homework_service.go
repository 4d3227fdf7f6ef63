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

type homeworkRepository interface {
	Create(ctx context.Context, homework *models.Homework) error
	List(ctx context.Context, filter models.HomeworkFilter) ([]models.Homework, int, error)
}

type lessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

// CreateHomeworkRequest sets homework on a lesson. File references material uploaded elsewhere.
type CreateHomeworkRequest struct {
	LessonID string  `json:"lesson_id" validate:"required,uuid"`
	GroupID  string  `json:"group_id" validate:"omitempty,uuid"`
	Title    string  `json:"title" validate:"required,max=200"`
	File     *string `json:"file" validate:"omitempty,max=500"`
}

// HomeworkService records homework against lessons.
type HomeworkService struct {
	repo      homeworkRepository
	lessons   lessonFinder
	groups    groupReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHomeworkService constructs HomeworkService.
func NewHomeworkService(repo homeworkRepository, lessons lessonFinder, groups groupReader, validate *validator.Validate, logger *zap.Logger) *HomeworkService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{repo: repo, lessons: lessons, groups: groups, validator: validate, logger: logger}
}

// Create stores homework for an active lesson, attributed to the teacher or staff user setting it.
func (s *HomeworkService) Create(ctx context.Context, req CreateHomeworkRequest, actor models.Actor) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid homework payload")
	}
	lesson, err := s.lessons.FindByID(ctx, req.LessonID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	if lesson == nil || lesson.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	if req.GroupID != "" && req.GroupID != lesson.GroupID {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "lesson does not belong to this group")
	}
	group, err := s.groups.FindByID(ctx, lesson.GroupID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load group")
	}
	if !authz.CanManageGroup(actor, group.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your lesson")
	}

	homework := &models.Homework{
		LessonID: lesson.ID,
		GroupID:  lesson.GroupID,
		Title:    strings.TrimSpace(req.Title),
		File:     req.File,
	}
	actorID := actor.ID
	if authz.IsTeacher(actor) {
		homework.TeacherID = &actorID
	} else {
		homework.UserID = &actorID
	}
	if err := s.repo.Create(ctx, homework); err != nil {
		return nil, appErrors.Internal(err, "failed to create homework")
	}
	s.logger.Info("homework recorded", zap.String("homework_id", homework.ID), zap.String("lesson_id", lesson.ID))
	return homework, nil
}

// List returns homework; teachers only see homework of their own groups.
func (s *HomeworkService) List(ctx context.Context, filter models.HomeworkFilter, actor models.Actor) ([]models.Homework, *models.Pagination, error) {
	filter.TeacherID = ""
	if authz.IsTeacher(actor) {
		filter.TeacherID = actor.ID
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list homework")
	}
	if items == nil {
		items = []models.Homework{}
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}
