package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/repository"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentGroup, error)
	ExistsActive(ctx context.Context, studentID, groupID string) (bool, error)
	CountActive(ctx context.Context, groupID string) (int, error)
	Create(ctx context.Context, enrollment *models.StudentGroup) error
	UpdateGroup(ctx context.Context, id, groupID string) error
	UpdateStatus(ctx context.Context, id string, status models.Status) error
}

type groupLocker interface {
	LockByID(ctx context.Context, id string) (*models.Group, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// EnrollStudentRequest adds a student to a group.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	GroupID   string `json:"group_id" validate:"required,uuid"`
}

// TransferEnrollmentRequest moves an enrollment to another group.
type TransferEnrollmentRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
}

// EnrollmentService manages group membership under the capacity invariant.
type EnrollmentService struct {
	repo      enrollmentRepository
	groups    groupLocker
	students  studentReader
	tx        txRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, groups groupLocker, students studentReader, tx txRunner, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, groups: groups, students: students, tx: tx, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata; defaults to active ones.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error) {
	if filter.Status == "" {
		filter.Status = models.StatusActive
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}
	if items == nil {
		items = []models.StudentGroup{}
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Archive lists cancelled enrollments.
func (s *EnrollmentService) Archive(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, *models.Pagination, error) {
	filter.Status = models.StatusInactive
	return s.List(ctx, filter)
}

// Enroll adds the student to the group when they are not already a member and a seat is free.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.StudentGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if err := s.ensureStudentActive(ctx, req.StudentID); err != nil {
		return nil, err
	}

	enrollment := &models.StudentGroup{StudentID: req.StudentID, GroupID: req.GroupID, Status: models.StatusActive}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claimSeat(ctx, req.StudentID, req.GroupID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			if repository.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrBadRequest, "student is already in group")
			}
			return appErrors.Internal(err, "failed to enroll student")
		}
		return nil
	})
	if err != nil {
		return nil, domainOr(err, "failed to enroll student")
	}
	s.logger.Info("student enrolled", zap.String("student_id", req.StudentID), zap.String("group_id", req.GroupID))
	return enrollment, nil
}

// Transfer moves an active enrollment into another group, re-checking membership and capacity there.
func (s *EnrollmentService) Transfer(ctx context.Context, id string, req TransferEnrollmentRequest) (*models.StudentGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid transfer payload")
	}
	enrollment, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.GroupID == req.GroupID {
		return enrollment, nil
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claimSeat(ctx, enrollment.StudentID, req.GroupID); err != nil {
			return err
		}
		if err := s.repo.UpdateGroup(ctx, id, req.GroupID); err != nil {
			if repository.IsUniqueViolation(err) {
				return appErrors.Clone(appErrors.ErrBadRequest, "student is already in group")
			}
			return appErrors.Internal(err, "failed to transfer enrollment")
		}
		return nil
	})
	if err != nil {
		return nil, domainOr(err, "failed to transfer enrollment")
	}
	s.logger.Info("enrollment transferred", zap.String("enrollment_id", id), zap.String("from", enrollment.GroupID), zap.String("to", req.GroupID))
	enrollment.GroupID = req.GroupID
	return enrollment, nil
}

// Unenroll cancels an active enrollment.
func (s *EnrollmentService) Unenroll(ctx context.Context, id string) error {
	if _, err := s.findActive(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.StatusInactive); err != nil {
		return appErrors.Internal(err, "failed to cancel enrollment")
	}
	s.logger.Info("enrollment cancelled", zap.String("enrollment_id", id))
	return nil
}

// claimSeat locks the target group row and verifies membership and capacity. Must run in a transaction.
func (s *EnrollmentService) claimSeat(ctx context.Context, studentID, groupID string) error {
	group, err := s.groups.LockByID(ctx, groupID)
	if err != nil && !isNotFound(err) {
		return appErrors.Internal(err, "failed to load group")
	}
	if group == nil || group.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	exists, err := s.repo.ExistsActive(ctx, studentID, groupID)
	if err != nil {
		return appErrors.Internal(err, "failed to check enrollment")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrBadRequest, "student is already in group")
	}

	count, err := s.repo.CountActive(ctx, groupID)
	if err != nil {
		return appErrors.Internal(err, "failed to count enrollments")
	}
	if count >= group.MaxStudent {
		s.logger.Info("group full", zap.String("group_id", groupID), zap.Int("max_student", group.MaxStudent))
		return appErrors.Clone(appErrors.ErrBadRequest, "group is full")
	}
	return nil
}

func (s *EnrollmentService) findActive(ctx context.Context, id string) (*models.StudentGroup, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	if enrollment == nil || enrollment.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return enrollment, nil
}

func (s *EnrollmentService) ensureStudentActive(ctx context.Context, id string) error {
	student, err := s.students.FindByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return appErrors.Internal(err, "failed to load student")
	}
	if student == nil || student.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}
