package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/educenter-api/internal/models"
)

const lessonColumns = `id, group_id, topic, description, teacher_id, user_id, status, created_at, updated_at`

// LessonRepository persists lessons and resolves their scheduling context.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID returns a lesson regardless of status.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := conn(ctx, r.db).GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindSchedule joins a lesson with its group recurrence and course session length.
func (r *LessonRepository) FindSchedule(ctx context.Context, id string) (*models.LessonSchedule, error) {
	const query = `SELECT l.id AS lesson_id, l.status AS lesson_status, l.created_at AS lesson_created_at,
	g.id AS group_id, g.name AS group_name, g.teacher_id, g.start_time, g.week_day, c.duration_hours
FROM lessons l
JOIN groups g ON g.id = l.group_id
JOIN courses c ON c.id = g.course_id
WHERE l.id = $1`
	var schedule models.LessonSchedule
	if err := conn(ctx, r.db).GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns lessons in the given status, optionally scoped to a group or a teacher's groups.
func (r *LessonRepository) List(ctx context.Context, status models.Status, groupID, teacherID string, page, pageSize int) ([]models.Lesson, int, error) {
	where := `WHERE l.status = $1`
	args := []interface{}{status}
	if groupID != "" {
		args = append(args, groupID)
		where += fmt.Sprintf(" AND l.group_id = $%d", len(args))
	}
	if teacherID != "" {
		args = append(args, teacherID)
		where += fmt.Sprintf(" AND g.teacher_id = $%d", len(args))
	}
	base := `FROM lessons l JOIN groups g ON g.id = l.group_id ` + where

	_, size, offset := normalisePage(page, pageSize)
	query := fmt.Sprintf(`SELECT l.id, l.group_id, l.topic, l.description, l.teacher_id, l.user_id, l.status, l.created_at, l.updated_at %s ORDER BY l.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var lessons []models.Lesson
	if err := conn(ctx, r.db).SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}
	return lessons, total, nil
}

// Create inserts a lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
	if lesson.Status == "" {
		lesson.Status = models.StatusActive
	}
	const query = `INSERT INTO lessons (id, group_id, topic, description, teacher_id, user_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, lesson.ID, lesson.GroupID, lesson.Topic, lesson.Description, lesson.TeacherID, lesson.UserID, lesson.Status, lesson.CreatedAt, lesson.UpdatedAt); err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

// UpdateStatus soft deletes or restores a lesson.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	const query = `UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}
	return nil
}
