package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// WeekDay is a day of the weekly recurrence of a group.
type WeekDay string

const (
	Monday    WeekDay = "MONDAY"
	Tuesday   WeekDay = "TUESDAY"
	Wednesday WeekDay = "WEDNESDAY"
	Thursday  WeekDay = "THURSDAY"
	Friday    WeekDay = "FRIDAY"
	Saturday  WeekDay = "SATURDAY"
	Sunday    WeekDay = "SUNDAY"
)

// indexed by time.Weekday, Sunday == 0
var weekdayByTime = [7]WeekDay{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekDayOf maps a Go weekday onto the enum.
func WeekDayOf(d time.Weekday) WeekDay {
	return weekdayByTime[int(d)%7]
}

// Valid reports whether d is one of the seven enum values.
func (d WeekDay) Valid() bool {
	for _, w := range weekdayByTime {
		if d == w {
			return true
		}
	}
	return false
}

// WeekDays is the set of days a group meets, stored as a Postgres text[].
type WeekDays []WeekDay

// Contains reports whether day is part of the set.
func (w WeekDays) Contains(day WeekDay) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one day.
func (w WeekDays) Intersects(other WeekDays) bool {
	for _, d := range w {
		if other.Contains(d) {
			return true
		}
	}
	return false
}

// Normalize upper-cases and de-duplicates the set preserving order.
func (w WeekDays) Normalize() WeekDays {
	out := make(WeekDays, 0, len(w))
	for _, d := range w {
		d = WeekDay(strings.ToUpper(strings.TrimSpace(string(d))))
		if !out.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (w WeekDays) Value() (driver.Value, error) {
	arr := make(pq.StringArray, len(w))
	for i, d := range w {
		arr[i] = string(d)
	}
	return arr.Value()
}

// Scan implements sql.Scanner.
func (w *WeekDays) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan week days: %w", err)
	}
	days := make(WeekDays, len(arr))
	for i, d := range arr {
		days[i] = WeekDay(d)
	}
	*w = days
	return nil
}

// Group is a recurring weekly class occupying a room.
type Group struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CourseID    string    `db:"course_id" json:"course_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	RoomID      string    `db:"room_id" json:"room_id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	WeekDays    WeekDays  `db:"week_day" json:"week_day"`
	MaxStudent  int       `db:"max_student" json:"max_student"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupDetail enriches a group with the names of its course, room and teacher.
type GroupDetail struct {
	Group
	CourseName  string `db:"course_name" json:"course_name"`
	RoomName    string `db:"room_name" json:"room_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	Name       string
	MaxStudent *int
	Status     Status
	Page       int
	PageSize   int
}

// RoomSlot is the scheduling footprint of an active group in a room.
type RoomSlot struct {
	GroupID       string   `db:"group_id" json:"group_id"`
	GroupName     string   `db:"group_name" json:"group_name"`
	StartTime     string   `db:"start_time" json:"start_time"`
	DurationHours int      `db:"duration_hours" json:"duration_hours"`
	WeekDays      WeekDays `db:"week_day" json:"week_day"`
}
