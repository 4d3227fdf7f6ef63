package models

import "time"

// Homework is an assignment attached to a lesson. File is a reference to material stored elsewhere.
type Homework struct {
	ID        string    `db:"id" json:"id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	Title     string    `db:"title" json:"title"`
	File      *string   `db:"file" json:"file,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HomeworkFilter narrows homework listings. TeacherID scopes results to that teacher's groups.
type HomeworkFilter struct {
	LessonID  string
	GroupID   string
	TeacherID string
	Page      int
	PageSize  int
}
