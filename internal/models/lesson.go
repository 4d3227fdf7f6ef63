package models

import "time"

// Lesson is one dated occurrence of a group's weekly schedule.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	GroupID     string    `db:"group_id" json:"group_id"`
	Topic       string    `db:"topic" json:"topic"`
	Description *string   `db:"description" json:"description,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LessonSchedule joins a lesson with the recurrence of its group and the course session length.
type LessonSchedule struct {
	LessonID       string    `db:"lesson_id"`
	LessonStatus   Status    `db:"lesson_status"`
	LessonDate     time.Time `db:"lesson_created_at"`
	GroupID        string    `db:"group_id"`
	GroupName      string    `db:"group_name"`
	GroupTeacherID string    `db:"teacher_id"`
	StartTime      string    `db:"start_time"`
	WeekDays       WeekDays  `db:"week_day"`
	DurationHours  int       `db:"duration_hours"`
}
