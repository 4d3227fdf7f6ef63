package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/educenter-api/internal/models"
	appErrors "github.com/noah-isme/educenter-api/pkg/errors"
)

// memStore is an in-memory stand-in for the relational schema.
type memStore struct {
	rooms       map[string]*models.Room
	courses     map[string]*models.Course
	teachers    map[string]*models.Teacher
	students    map[string]*models.Student
	users       map[string]*models.User
	groups      map[string]*models.Group
	enrollments map[string]*models.StudentGroup
	lessons     map[string]*models.Lesson
	attendance  map[string]*models.Attendance
	seq         int
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{
		rooms:       map[string]*models.Room{},
		courses:     map[string]*models.Course{},
		teachers:    map[string]*models.Teacher{},
		students:    map[string]*models.Student{},
		users:       map[string]*models.User{},
		groups:      map[string]*models.Group{},
		enrollments: map[string]*models.StudentGroup{},
		lessons:     map[string]*models.Lesson{},
		attendance:  map[string]*models.Attendance{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addRoom(id string, status models.Status) {
	m.rooms[id] = &models.Room{ID: id, Name: id, Status: status}
}

func (m *memStore) addCourse(id string, hours int, status models.Status) {
	m.courses[id] = &models.Course{ID: id, Name: id, DurationHours: hours, Status: status}
}

func (m *memStore) addTeacher(id string, status models.Status) {
	m.teachers[id] = &models.Teacher{ID: id, FirstName: id, Status: status}
}

func (m *memStore) addStudent(id string, status models.Status) {
	m.students[id] = &models.Student{ID: id, FirstName: id, Status: status}
}

func (m *memStore) addGroup(g models.Group) *models.Group {
	if g.Status == "" {
		g.Status = models.StatusActive
	}
	m.groups[g.ID] = &g
	return &g
}

func (m *memStore) addEnrollment(id, studentID, groupID string, status models.Status) {
	m.enrollments[id] = &models.StudentGroup{ID: id, StudentID: studentID, GroupID: groupID, Status: status}
}

func (m *memStore) activeEnrollments(groupID string) int {
	n := 0
	for _, e := range m.enrollments {
		if e.GroupID == groupID && e.Status == models.StatusActive {
			n++
		}
	}
	return n
}

type memRooms struct{ s *memStore }

func (r memRooms) FindByID(_ context.Context, id string) (*models.Room, error) {
	if room, ok := r.s.rooms[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

type memCourses struct{ s *memStore }

func (r memCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	if course, ok := r.s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type memTeachers struct{ s *memStore }

func (r memTeachers) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := r.s.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

type memStudents struct{ s *memStore }

func (r memStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	if student, ok := r.s.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := r.s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type memGroups struct {
	s        *memStore
	lockedBy []string
}

func (r *memGroups) FindByID(_ context.Context, id string) (*models.Group, error) {
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	if g, ok := r.s.groups[id]; ok {
		clone := *g
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memGroups) LockByID(ctx context.Context, id string) (*models.Group, error) {
	r.lockedBy = append(r.lockedBy, id)
	return r.FindByID(ctx, id)
}

func (r *memGroups) FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	g, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.GroupDetail{Group: *g, CourseName: g.CourseID, RoomName: g.RoomID, TeacherName: g.TeacherID}, nil
}

func (r *memGroups) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	for _, g := range r.s.groups {
		if g.Name == name && g.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memGroups) ListRoomSlots(_ context.Context, roomID, excludeID string) ([]models.RoomSlot, error) {
	var slots []models.RoomSlot
	for _, g := range r.s.groups {
		if g.RoomID != roomID || g.Status != models.StatusActive || g.ID == excludeID {
			continue
		}
		course := r.s.courses[g.CourseID]
		slots = append(slots, models.RoomSlot{GroupID: g.ID, GroupName: g.Name, StartTime: g.StartTime, DurationHours: course.DurationHours, WeekDays: g.WeekDays})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime < slots[j].StartTime })
	return slots, nil
}

func (r *memGroups) Create(_ context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = r.s.nextID("group")
	}
	clone := *group
	r.s.groups[group.ID] = &clone
	return nil
}

func (r *memGroups) Update(_ context.Context, group *models.Group) error {
	clone := *group
	r.s.groups[group.ID] = &clone
	return nil
}

func (r *memGroups) Deactivate(_ context.Context, id string) (int64, error) {
	r.s.groups[id].Status = models.StatusInactive
	var n int64
	for _, e := range r.s.enrollments {
		if e.GroupID == id && e.Status == models.StatusActive {
			e.Status = models.StatusInactive
			n++
		}
	}
	return n, nil
}

func (r *memGroups) List(_ context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error) {
	var out []models.GroupDetail
	for _, g := range r.s.groups {
		if g.Status != filter.Status {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, models.GroupDetail{Group: *g})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *memGroups) ListStudents(_ context.Context, groupID string) ([]models.Student, error) {
	var out []models.Student
	for _, e := range r.s.enrollments {
		if e.GroupID == groupID && e.Status == models.StatusActive {
			out = append(out, *r.s.students[e.StudentID])
		}
	}
	return out, nil
}

type memEnrollments struct{ s *memStore }

func (r memEnrollments) List(_ context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, int, error) {
	var out []models.StudentGroup
	for _, e := range r.s.enrollments {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.GroupID != "" && e.GroupID != filter.GroupID {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (r memEnrollments) FindByID(_ context.Context, id string) (*models.StudentGroup, error) {
	if e, ok := r.s.enrollments[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r memEnrollments) ExistsActive(_ context.Context, studentID, groupID string) (bool, error) {
	for _, e := range r.s.enrollments {
		if e.StudentID == studentID && e.GroupID == groupID && e.Status == models.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r memEnrollments) CountActive(_ context.Context, groupID string) (int, error) {
	return r.s.activeEnrollments(groupID), nil
}

func (r memEnrollments) Create(_ context.Context, e *models.StudentGroup) error {
	if e.ID == "" {
		e.ID = r.s.nextID("enrollment")
	}
	clone := *e
	r.s.enrollments[e.ID] = &clone
	return nil
}

func (r memEnrollments) UpdateGroup(_ context.Context, id, groupID string) error {
	r.s.enrollments[id].GroupID = groupID
	return nil
}

func (r memEnrollments) UpdateStatus(_ context.Context, id string, status models.Status) error {
	r.s.enrollments[id].Status = status
	return nil
}

type memLessons struct{ s *memStore }

func (r memLessons) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	if l, ok := r.s.lessons[id]; ok {
		clone := *l
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r memLessons) FindSchedule(_ context.Context, id string) (*models.LessonSchedule, error) {
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	g := r.s.groups[l.GroupID]
	return &models.LessonSchedule{
		LessonID:       l.ID,
		LessonStatus:   l.Status,
		LessonDate:     l.CreatedAt,
		GroupID:        g.ID,
		GroupName:      g.Name,
		GroupTeacherID: g.TeacherID,
		StartTime:      g.StartTime,
		WeekDays:       g.WeekDays,
		DurationHours:  r.s.courses[g.CourseID].DurationHours,
	}, nil
}

func (r memLessons) List(_ context.Context, status models.Status, groupID, teacherID string, _, _ int) ([]models.Lesson, int, error) {
	var out []models.Lesson
	for _, l := range r.s.lessons {
		if l.Status != status || (groupID != "" && l.GroupID != groupID) {
			continue
		}
		if teacherID != "" && r.s.groups[l.GroupID].TeacherID != teacherID {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (r memLessons) Create(_ context.Context, l *models.Lesson) error {
	if l.ID == "" {
		l.ID = r.s.nextID("lesson")
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	clone := *l
	r.s.lessons[l.ID] = &clone
	return nil
}

func (r memLessons) UpdateStatus(_ context.Context, id string, status models.Status) error {
	r.s.lessons[id].Status = status
	return nil
}

type memAttendance struct{ s *memStore }

func (r memAttendance) Upsert(_ context.Context, a *models.Attendance) error {
	for _, existing := range r.s.attendance {
		if existing.LessonID == a.LessonID && existing.StudentID == a.StudentID {
			a.ID = existing.ID
			a.CreatedAt = existing.CreatedAt
			clone := *a
			r.s.attendance[a.ID] = &clone
			return nil
		}
	}
	a.ID = r.s.nextID("attendance")
	a.CreatedAt = time.Now()
	clone := *a
	r.s.attendance[a.ID] = &clone
	return nil
}

func (r memAttendance) UpdatePresenceByUser(_ context.Context, userID string, isPresent bool) (int64, error) {
	var n int64
	for _, a := range r.s.attendance {
		if a.UserID != nil && *a.UserID == userID {
			a.IsPresent = isPresent
			n++
		}
	}
	return n, nil
}

func (r memAttendance) DeleteAll(context.Context) (int64, error) {
	n := int64(len(r.s.attendance))
	r.s.attendance = map[string]*models.Attendance{}
	return n, nil
}

func (r memAttendance) List(context.Context, models.AttendanceFilter) ([]models.Attendance, int, error) {
	var out []models.Attendance
	for _, a := range r.s.attendance {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (r memAttendance) ListSheet(_ context.Context, lessonID string) ([]models.AttendanceSheetRow, error) {
	lesson := r.s.lessons[lessonID]
	var rows []models.AttendanceSheetRow
	for _, e := range r.s.enrollments {
		if e.GroupID != lesson.GroupID || e.Status != models.StatusActive {
			continue
		}
		student := r.s.students[e.StudentID]
		row := models.AttendanceSheetRow{StudentID: student.ID, FirstName: student.FirstName, LastName: student.LastName}
		for _, a := range r.s.attendance {
			if a.LessonID == lessonID && a.StudentID == student.ID {
				present := a.IsPresent
				row.IsPresent = &present
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })
	return rows, nil
}

type memHomework struct {
	s     *memStore
	items []models.Homework
}

func (r *memHomework) Create(_ context.Context, h *models.Homework) error {
	h.ID = r.s.nextID("homework")
	r.items = append(r.items, *h)
	return nil
}

func (r *memHomework) List(_ context.Context, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	var out []models.Homework
	for _, h := range r.items {
		if filter.LessonID != "" && h.LessonID != filter.LessonID {
			continue
		}
		if filter.GroupID != "" && h.GroupID != filter.GroupID {
			continue
		}
		if filter.TeacherID != "" && r.s.groups[h.GroupID].TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, h)
	}
	return out, len(out), nil
}

// fakeTx runs callbacks inline and records the rooms locked.
// beforeLock, when set, runs once between the caller's read and the locked callback.
type fakeTx struct {
	locks      [][]string
	txCalls    int
	beforeLock func()
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txCalls++
	return fn(ctx)
}

func (f *fakeTx) WithinRoomLock(ctx context.Context, roomIDs []string, fn func(ctx context.Context) error) error {
	f.locks = append(f.locks, roomIDs)
	if f.beforeLock != nil {
		hook := f.beforeLock
		f.beforeLock = nil
		hook()
	}
	return fn(ctx)
}

type memCache struct {
	values map[string][]byte
	gets   int
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
		}
	}
	return nil
}

// at returns a clock fixed at the given wall-clock time in UTC.
func at(year int, month time.Month, day, hour, minute int) func() time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return func() time.Time { return t }
}
