package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/authz"
	"github.com/noah-isme/educenter-api/internal/models"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
)

const (
	groupListCachePattern = "groups:list:*"
	maxRelockAttempts     = 3
)

// errGroupRoomMoved signals that the group changed rooms between the unlocked read and the room lock.
var errGroupRoomMoved = errors.New("group moved to another room")

type groupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Deactivate(ctx context.Context, id string) (int64, error)
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error)
	ListStudents(ctx context.Context, groupID string) ([]models.Student, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinRoomLock(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error
}

// CreateGroupRequest is the payload for scheduling a new group.
type CreateGroupRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description *string          `json:"description"`
	CourseID    string           `json:"course_id" validate:"required,uuid"`
	TeacherID   string           `json:"teacher_id" validate:"required,uuid"`
	RoomID      string           `json:"room_id" validate:"required,uuid"`
	StartDate   string           `json:"start_date" validate:"required"`
	StartTime   string           `json:"start_time" validate:"required,hhmm"`
	WeekDays    []models.WeekDay `json:"week_day" validate:"required,min=1,dive,weekday"`
	MaxStudent  int              `json:"max_student" validate:"required,min=1"`
}

// UpdateGroupRequest is a partial update; nil fields keep their stored value.
type UpdateGroupRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string          `json:"description"`
	CourseID    *string          `json:"course_id" validate:"omitempty,uuid"`
	TeacherID   *string          `json:"teacher_id" validate:"omitempty,uuid"`
	RoomID      *string          `json:"room_id" validate:"omitempty,uuid"`
	StartDate   *string          `json:"start_date"`
	StartTime   *string          `json:"start_time" validate:"omitempty,hhmm"`
	WeekDays    []models.WeekDay `json:"week_day" validate:"omitempty,min=1,dive,weekday"`
	MaxStudent  *int             `json:"max_student" validate:"omitempty,min=1"`
}

// GroupPage is a page of group listings.
type GroupPage struct {
	Items      []models.GroupDetail `json:"items"`
	Pagination *models.Pagination   `json:"pagination"`
}

// GroupService schedules groups into rooms.
type GroupService struct {
	groups       groupRepository
	rooms        roomReader
	courses      courseReader
	teachers     teacherReader
	availability *RoomAvailability
	tx           txRunner
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// GroupServiceDeps bundles GroupService collaborators.
type GroupServiceDeps struct {
	Groups       groupRepository
	Rooms        roomReader
	Courses      courseReader
	Teachers     teacherReader
	Availability *RoomAvailability
	Tx           txRunner
	Cache        *CacheService
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(deps GroupServiceDeps) *GroupService {
	if deps.Validator == nil {
		deps.Validator = NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &GroupService{
		groups:       deps.Groups,
		rooms:        deps.Rooms,
		courses:      deps.Courses,
		teachers:     deps.Teachers,
		availability: deps.Availability,
		tx:           deps.Tx,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
	}
}

// Create validates references, name uniqueness and room availability, then persists an active group.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CourseID:    req.CourseID,
		TeacherID:   req.TeacherID,
		RoomID:      req.RoomID,
		StartDate:   startDate,
		StartTime:   req.StartTime,
		WeekDays:    models.WeekDays(req.WeekDays).Normalize(),
		MaxStudent:  req.MaxStudent,
		Status:      models.StatusActive,
	}

	err = s.tx.WithinRoomLock(ctx, []string{group.RoomID}, func(ctx context.Context) error {
		if err := s.ensureRoomActive(ctx, group.RoomID); err != nil {
			return err
		}
		course, err := s.loadActiveCourse(ctx, group.CourseID)
		if err != nil {
			return err
		}
		if err := s.ensureTeacherActive(ctx, group.TeacherID); err != nil {
			return err
		}
		if err := s.ensureNameFree(ctx, group.Name, ""); err != nil {
			return err
		}
		if err := s.ensureRoomFree(ctx, RoomSlotQuery{
			RoomID:        group.RoomID,
			StartTime:     group.StartTime,
			DurationHours: course.DurationHours,
			WeekDays:      group.WeekDays,
		}); err != nil {
			return err
		}
		if err := s.groups.Create(ctx, group); err != nil {
			return appErrors.Internal(err, "failed to create group")
		}
		return nil
	})
	if err != nil {
		return nil, domainOr(err, "failed to create group")
	}

	s.cache.Invalidate(ctx, groupListCachePattern)
	s.logger.Info("group scheduled",
		zap.String("group_id", group.ID),
		zap.String("room_id", group.RoomID),
		zap.String("start_time", group.StartTime))
	return group, nil
}

// Update merges the partial payload into the stored group, re-checking the room when its slot moves.
func (s *GroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}

	var (
		updated *models.Group
		err     error
	)
	for attempt := 1; ; attempt++ {
		updated, err = s.updateOnce(ctx, id, req)
		if !errors.Is(err, errGroupRoomMoved) || attempt == maxRelockAttempts {
			break
		}
		s.logger.Debug("group moved while waiting for room lock", zap.String("group_id", id), zap.Int("attempt", attempt))
	}
	if errors.Is(err, errGroupRoomMoved) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group was rescheduled concurrently, retry the update")
	}
	if err != nil {
		return nil, domainOr(err, "failed to update group")
	}

	s.cache.Invalidate(ctx, groupListCachePattern)
	s.logger.Info("group updated", zap.String("group_id", id), zap.Bool("rescheduled", req.RoomID != nil || req.StartTime != nil || req.CourseID != nil))
	return updated, nil
}

// updateOnce locks the group's current room (and the requested one) and applies the update.
// It returns errGroupRoomMoved when the group left the locked rooms before the lock was held.
func (s *GroupService) updateOnce(ctx context.Context, id string, req UpdateGroupRequest) (*models.Group, error) {
	current, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	lockRooms := []string{current.RoomID}
	if req.RoomID != nil {
		lockRooms = append(lockRooms, *req.RoomID)
	}

	var updated *models.Group
	err = s.tx.WithinRoomLock(ctx, lockRooms, func(ctx context.Context) error {
		existing, err := s.findGroup(ctx, id)
		if err != nil {
			return err
		}
		if !containsString(lockRooms, existing.RoomID) {
			return errGroupRoomMoved
		}
		merged := *existing

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != existing.Name {
				if err := s.ensureNameFree(ctx, name, existing.ID); err != nil {
					return err
				}
			}
			merged.Name = name
		}
		if req.RoomID != nil && *req.RoomID != existing.RoomID {
			if err := s.ensureRoomActive(ctx, *req.RoomID); err != nil {
				return err
			}
			merged.RoomID = *req.RoomID
		}
		var course *models.Course
		if req.CourseID != nil && *req.CourseID != existing.CourseID {
			if course, err = s.loadActiveCourse(ctx, *req.CourseID); err != nil {
				return err
			}
			merged.CourseID = *req.CourseID
		}
		if req.TeacherID != nil && *req.TeacherID != existing.TeacherID {
			if err := s.ensureTeacherActive(ctx, *req.TeacherID); err != nil {
				return err
			}
			merged.TeacherID = *req.TeacherID
		}
		if req.StartTime != nil {
			merged.StartTime = *req.StartTime
		}
		if req.WeekDays != nil {
			merged.WeekDays = models.WeekDays(req.WeekDays).Normalize()
		}
		if req.Description != nil {
			merged.Description = req.Description
		}
		if req.MaxStudent != nil {
			merged.MaxStudent = *req.MaxStudent
		}
		if req.StartDate != nil {
			startDate, err := parseDate(*req.StartDate)
			if err != nil {
				return err
			}
			merged.StartDate = startDate
		}

		slotMoved := req.RoomID != nil || req.StartTime != nil || req.CourseID != nil ||
			(req.WeekDays != nil && s.availability.WeekdayAware())
		if slotMoved {
			if course == nil {
				if course, err = s.loadCourse(ctx, merged.CourseID); err != nil {
					return err
				}
			}
			if err := s.ensureRoomFree(ctx, RoomSlotQuery{
				RoomID:         merged.RoomID,
				StartTime:      merged.StartTime,
				DurationHours:  course.DurationHours,
				WeekDays:       merged.WeekDays,
				ExcludeGroupID: existing.ID,
			}); err != nil {
				return err
			}
		}

		if err := s.groups.Update(ctx, &merged); err != nil {
			return appErrors.Internal(err, "failed to update group")
		}
		updated = &merged
		return nil
	})
	return updated, err
}

// Delete soft deletes the group and deactivates its enrollments atomically.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.findGroup(ctx, id); err != nil {
		return err
	}
	var cascaded int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cascaded, err = s.groups.Deactivate(ctx, id)
		return err
	})
	if err != nil {
		return domainOr(err, "failed to delete group")
	}
	s.cache.Invalidate(ctx, groupListCachePattern)
	s.logger.Info("group deactivated", zap.String("group_id", id), zap.Int64("enrollments_closed", cascaded))
	return nil
}

// Get returns an active group. Teachers may only read their own groups.
func (s *GroupService) Get(ctx context.Context, id string, actor models.Actor) (*models.GroupDetail, error) {
	detail, err := s.groups.FindDetailByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Internal(err, "failed to load group")
	}
	if detail.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	if !authz.CanManageGroup(actor, detail.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your group")
	}
	return detail, nil
}

// Students returns the active members of an active group.
func (s *GroupService) Students(ctx context.Context, id string, actor models.Actor) ([]models.Student, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	if !authz.CanManageGroup(actor, group.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your group")
	}
	students, err := s.groups.ListStudents(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list group students")
	}
	return students, nil
}

// List returns active groups, served from cache when enabled. The bool reports a cache hit.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) (*GroupPage, bool, error) {
	filter.Status = models.StatusActive
	key := groupListCacheKey(filter)

	var cached GroupPage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	page, err := s.list(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, page, 0)
	return page, false, nil
}

// Archive lists soft deleted groups.
func (s *GroupService) Archive(ctx context.Context, filter models.GroupFilter) (*GroupPage, error) {
	filter.Status = models.StatusInactive
	return s.list(ctx, filter)
}

func (s *GroupService) list(ctx context.Context, filter models.GroupFilter) (*GroupPage, error) {
	items, total, err := s.groups.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list groups")
	}
	if items == nil {
		items = []models.GroupDetail{}
	}
	return &GroupPage{Items: items, Pagination: paginationFor(filter.Page, filter.PageSize, total)}, nil
}

func groupListCacheKey(f models.GroupFilter) string {
	maxStudent := "any"
	if f.MaxStudent != nil {
		maxStudent = fmt.Sprintf("%d", *f.MaxStudent)
	}
	return fmt.Sprintf("groups:list:%s:%s:%s:%d:%d", f.Status, strings.ToLower(f.Name), maxStudent, f.Page, f.PageSize)
}

func (s *GroupService) findGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Internal(err, "failed to load group")
	}
	return group, nil
}

func (s *GroupService) ensureRoomActive(ctx context.Context, id string) error {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return appErrors.Internal(err, "failed to load room")
	}
	if room == nil || room.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return nil
}

func (s *GroupService) loadActiveCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

func (s *GroupService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *GroupService) ensureTeacherActive(ctx context.Context, id string) error {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return appErrors.Internal(err, "failed to load teacher")
	}
	if teacher == nil || teacher.Status != models.StatusActive {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}

func (s *GroupService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	exists, err := s.groups.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to validate group name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "group already exists")
	}
	return nil
}

func (s *GroupService) ensureRoomFree(ctx context.Context, q RoomSlotQuery) error {
	busy, clash, err := s.availability.IsRoomBusy(ctx, q)
	if err != nil {
		return appErrors.Internal(err, "failed to check room availability")
	}
	if busy {
		s.metrics.IncRoomConflict()
		s.logger.Info("room conflict",
			zap.String("room_id", q.RoomID),
			zap.String("start_time", q.StartTime),
			zap.String("clashes_with", clash.GroupID))
		return appErrors.Clone(appErrors.ErrConflict, "room is busy at this time")
	}
	return nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
