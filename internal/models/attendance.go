package models

import "time"

// Attendance is the presence mark of a student for a lesson. Exactly one of TeacherID and UserID is set.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	IsPresent bool      `db:"is_present" json:"isPresent"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	LessonID  string
	StudentID string
	Page      int
	PageSize  int
}

// AttendanceSheetRow is one line of a lesson attendance sheet; IsPresent is nil when no mark exists.
type AttendanceSheetRow struct {
	StudentID string     `db:"student_id"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	IsPresent *bool      `db:"is_present"`
	MarkedAt  *time.Time `db:"marked_at"`
}
