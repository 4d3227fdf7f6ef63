package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/authz"
	"github.com/noah-isme/educenter-api/internal/models"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
	"github.com/noah-isme/educenter-api/pkg/timeslot"
)

type lessonScheduleReader interface {
	FindSchedule(ctx context.Context, lessonID string) (*models.LessonSchedule, error)
}

type enrollmentChecker interface {
	ExistsActive(ctx context.Context, studentID, groupID string) (bool, error)
}

// AttendanceAttempt is a request to mark a student on a lesson.
type AttendanceAttempt struct {
	LessonID  string
	StudentID string
	Actor     models.Actor
}

// AttendanceValidator decides whether an attendance mark is currently permitted. It only reads.
type AttendanceValidator struct {
	lessons     lessonScheduleReader
	enrollments enrollmentChecker
	now         func() time.Time
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAttendanceValidator constructs the validator. now must return wall-clock time in the school's zone.
func NewAttendanceValidator(lessons lessonScheduleReader, enrollments enrollmentChecker, now func() time.Time, metrics *MetricsService, logger *zap.Logger) *AttendanceValidator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceValidator{lessons: lessons, enrollments: enrollments, now: now, metrics: metrics, logger: logger}
}

// Validate runs the checks in order and returns the first failure:
// lesson, enrollment, ownership, week day, lesson start, then the teacher-only time window.
func (v *AttendanceValidator) Validate(ctx context.Context, attempt AttendanceAttempt) (*models.LessonSchedule, error) {
	schedule, err := v.lessons.FindSchedule(ctx, attempt.LessonID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	if schedule == nil || schedule.LessonStatus != models.StatusActive {
		return nil, v.reject(attempt, RejectLessonNotFound, appErrors.Clone(appErrors.ErrNotFound, "lesson not found"))
	}

	enrolled, err := v.enrollments.ExistsActive(ctx, attempt.StudentID, schedule.GroupID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, v.reject(attempt, RejectNotEnrolled, appErrors.Clone(appErrors.ErrBadRequest, "student not found in this group"))
	}

	if !authz.CanManageGroup(attempt.Actor, schedule.GroupTeacherID) {
		return nil, v.reject(attempt, RejectNotOwner, appErrors.Clone(appErrors.ErrForbidden, "not your lesson"))
	}

	now := v.now()
	if !schedule.WeekDays.Contains(models.WeekDayOf(now.Weekday())) {
		return nil, v.reject(attempt, RejectWeekday, appErrors.Clone(appErrors.ErrBadRequest, "lesson has not started yet"))
	}

	window, err := timeslot.SessionWindow(schedule.StartTime, schedule.DurationHours)
	if err != nil {
		return nil, appErrors.Internal(err, "invalid group schedule")
	}
	minute := timeslot.MinuteOfDay(now)

	if !schedule.LessonDate.Before(now) && minute < window.Start {
		return nil, v.reject(attempt, RejectNotStarted, appErrors.Clone(appErrors.ErrBadRequest, "lesson has not started yet"))
	}

	if authz.IsTeacher(attempt.Actor) && !window.ContainsStrict(minute) {
		return nil, v.reject(attempt, RejectOutsideWindow, appErrors.Clone(appErrors.ErrBadRequest, "attendance cannot be recorded outside lesson time."))
	}

	return schedule, nil
}

func (v *AttendanceValidator) reject(attempt AttendanceAttempt, reason string, err *appErrors.Error) error {
	v.metrics.IncAttendanceRejection(reason)
	v.logger.Info("attendance rejected",
		zap.String("lesson_id", attempt.LessonID),
		zap.String("student_id", attempt.StudentID),
		zap.String("actor_id", attempt.Actor.ID),
		zap.String("role", string(attempt.Actor.Role)),
		zap.String("reason", reason))
	return err
}
