package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/authz"
	"github.com/noah-isme/educenter-api/internal/models"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
	"github.com/noah-isme/educenter-api/pkg/export"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, attendance *models.Attendance) error
	UpdatePresenceByUser(ctx context.Context, userID string, isPresent bool) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	ListSheet(ctx context.Context, lessonID string) ([]models.AttendanceSheetRow, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RecordAttendanceRequest marks one student on one lesson.
type RecordAttendanceRequest struct {
	LessonID  string `json:"lesson_id" validate:"required,uuid"`
	StudentID string `json:"student_id" validate:"required,uuid"`
	IsPresent *bool  `json:"isPresent" validate:"required"`
}

// UpdateAttendanceRequest changes the presence flag of existing marks.
type UpdateAttendanceRequest struct {
	IsPresent *bool `json:"isPresent" validate:"required"`
}

// AttendanceExport is a rendered attendance sheet.
type AttendanceExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// AttendanceService records and maintains attendance marks.
type AttendanceService struct {
	repo      attendanceRepository
	gate      *AttendanceValidator
	lessons   lessonScheduleReader
	users     userReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, gate *AttendanceValidator, lessons lessonScheduleReader, users userReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, gate: gate, lessons: lessons, users: users, metrics: metrics, validator: validate, logger: logger}
}

// Record validates the attempt and stores the mark, attributing it to the teacher or staff user.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest, actor models.Actor) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	if _, err := s.gate.Validate(ctx, AttendanceAttempt{LessonID: req.LessonID, StudentID: req.StudentID, Actor: actor}); err != nil {
		return nil, err
	}

	record := &models.Attendance{
		LessonID:  req.LessonID,
		StudentID: req.StudentID,
		IsPresent: *req.IsPresent,
	}
	actorID := actor.ID
	if authz.IsTeacher(actor) {
		record.TeacherID = &actorID
	} else {
		record.UserID = &actorID
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Internal(err, "failed to record attendance")
	}
	s.metrics.IncAttendanceRecorded(string(actor.Role))
	s.logger.Info("attendance recorded",
		zap.String("lesson_id", record.LessonID),
		zap.String("student_id", record.StudentID),
		zap.Bool("is_present", record.IsPresent),
		zap.String("actor_id", actor.ID))
	return record, nil
}

// UpdateByUser sets the presence flag on every mark recorded by the staff user userID.
// Marks are not re-validated against the lesson window.
func (s *AttendanceService) UpdateByUser(ctx context.Context, userID string, req UpdateAttendanceRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid attendance payload")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return 0, appErrors.Internal(err, "failed to load user")
	}
	affected, err := s.repo.UpdatePresenceByUser(ctx, userID, *req.IsPresent)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to update attendance")
	}
	s.logger.Info("attendance updated by user", zap.String("user_id", userID), zap.Int64("rows", affected))
	return affected, nil
}

// ClearAll deletes every attendance mark. Calling it on an empty table succeeds.
func (s *AttendanceService) ClearAll(ctx context.Context, actor models.Actor) (int64, error) {
	affected, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to delete attendance")
	}
	s.logger.Warn("attendance cleared", zap.String("actor_id", actor.ID), zap.Int64("rows", affected))
	return affected, nil
}

// List returns attendance marks with pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list attendance")
	}
	if records == nil {
		records = []models.Attendance{}
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Export renders the attendance sheet of a lesson as CSV or PDF.
func (s *AttendanceService) Export(ctx context.Context, lessonID, rawFormat string, actor models.Actor) (*AttendanceExport, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, err.Error())
	}
	schedule, err := s.lessons.FindSchedule(ctx, lessonID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	if !authz.CanManageGroup(actor, schedule.GroupTeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your lesson")
	}

	rows, err := s.repo.ListSheet(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance sheet")
	}

	sheet := export.Sheet{
		Title:   fmt.Sprintf("%s - %s", schedule.GroupName, schedule.LessonDate.Format("2006-01-02")),
		Headers: []string{"Student ID", "Name", "Present", "Marked At"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		present, markedAt := "-", ""
		if row.IsPresent != nil {
			present = "no"
			if *row.IsPresent {
				present = "yes"
			}
		}
		if row.MarkedAt != nil {
			markedAt = row.MarkedAt.Format(time.RFC3339)
		}
		name := models.Student{FirstName: row.FirstName, LastName: row.LastName}.FullName()
		sheet.Rows = append(sheet.Rows, []string{row.StudentID, name, present, markedAt})
	}

	payload, err := export.Render(format, sheet)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render attendance sheet")
	}
	return &AttendanceExport{
		Filename:    fmt.Sprintf("attendance-%s.%s", lessonID, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}
