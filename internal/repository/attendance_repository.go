package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/educenter-api/internal/models"
)

// AttendanceRepository persists attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records the mark for a (lesson, student) pair, replacing any previous mark and its author.
func (r *AttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO attendances (id, lesson_id, student_id, is_present, teacher_id, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (lesson_id, student_id) DO UPDATE
SET is_present = EXCLUDED.is_present, teacher_id = EXCLUDED.teacher_id, user_id = EXCLUDED.user_id, updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`

	row := conn(ctx, r.db).QueryRowxContext(ctx, query,
		attendance.ID, attendance.LessonID, attendance.StudentID, attendance.IsPresent,
		attendance.TeacherID, attendance.UserID, now)
	if err := row.Scan(&attendance.ID, &attendance.CreatedAt, &attendance.UpdatedAt); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// UpdatePresenceByUser sets is_present on every mark recorded by the given staff user.
func (r *AttendanceRepository) UpdatePresenceByUser(ctx context.Context, userID string, isPresent bool) (int64, error) {
	const query = `UPDATE attendances SET is_present = $2, updated_at = $3 WHERE user_id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, userID, isPresent, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update attendance presence: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteAll removes every attendance row.
func (r *AttendanceRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM attendances`)
	if err != nil {
		return 0, fmt.Errorf("delete attendances: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// List returns attendance marks filtered by lesson and student.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	var conditions []string
	var args []interface{}
	if filter.LessonID != "" {
		args = append(args, filter.LessonID)
		conditions = append(conditions, fmt.Sprintf("lesson_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT id, lesson_id, student_id, is_present, teacher_id, user_id, created_at, updated_at FROM attendances%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, clause, size, offset)
	var records []models.Attendance
	if err := conn(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendances: %w", err)
	}
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) FROM attendances"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}
	return records, total, nil
}

// ListSheet returns one row per student actively enrolled in the lesson's group with their mark, if any.
func (r *AttendanceRepository) ListSheet(ctx context.Context, lessonID string) ([]models.AttendanceSheetRow, error) {
	const query = `SELECT s.id AS student_id, s.first_name, s.last_name, a.is_present, a.updated_at AS marked_at
FROM lessons l
JOIN student_groups sg ON sg.group_id = l.group_id AND sg.status = 'active'
JOIN students s ON s.id = sg.student_id
LEFT JOIN attendances a ON a.lesson_id = l.id AND a.student_id = s.id
WHERE l.id = $1
ORDER BY s.first_name ASC, s.last_name ASC`
	var rows []models.AttendanceSheetRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list attendance sheet: %w", err)
	}
	return rows, nil
}
