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

// HomeworkRepository persists homework assignments.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs the repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create inserts a homework row.
func (r *HomeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	if homework.ID == "" {
		homework.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	homework.CreatedAt = now
	homework.UpdatedAt = now
	const query = `INSERT INTO homeworks (id, lesson_id, group_id, title, file, teacher_id, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query,
		homework.ID, homework.LessonID, homework.GroupID, homework.Title, homework.File,
		homework.TeacherID, homework.UserID, homework.CreatedAt, homework.UpdatedAt); err != nil {
		return fmt.Errorf("insert homework: %w", err)
	}
	return nil
}

// List returns homework filtered by lesson, group or the teacher owning the group, newest first.
func (r *HomeworkRepository) List(ctx context.Context, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	var conditions []string
	var args []interface{}
	if filter.LessonID != "" {
		args = append(args, filter.LessonID)
		conditions = append(conditions, fmt.Sprintf("h.lesson_id = $%d", len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("h.group_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("g.teacher_id = $%d", len(args)))
	}
	base := `FROM homeworks h JOIN groups g ON g.id = h.group_id`
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT h.id, h.lesson_id, h.group_id, h.title, h.file, h.teacher_id, h.user_id, h.created_at, h.updated_at %s ORDER BY h.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var items []models.Homework
	if err := conn(ctx, r.db).SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list homework: %w", err)
	}
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count homework: %w", err)
	}
	return items, total, nil
}
