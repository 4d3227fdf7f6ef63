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

// EnrollmentRepository handles persistence of student-group enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.StudentGroup, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT id, student_id, group_id, status, created_at, updated_at FROM student_groups%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, clause, size, offset)
	var enrollments []models.StudentGroup
	if err := conn(ctx, r.db).SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) FROM student_groups"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	const query = `SELECT id, student_id, group_id, status, created_at, updated_at FROM student_groups WHERE id = $1`
	var enrollment models.StudentGroup
	if err := conn(ctx, r.db).GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive reports whether the student holds an active enrollment in the group.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, groupID string) (bool, error) {
	const query = `SELECT 1 FROM student_groups WHERE student_id = $1 AND group_id = $2 AND status = 'active' LIMIT 1`
	var exists int
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, studentID, groupID); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CountActive counts active enrollments of a group.
func (r *EnrollmentRepository) CountActive(ctx context.Context, groupID string) (int, error) {
	const query = `SELECT COUNT(*) FROM student_groups WHERE group_id = $1 AND status = 'active'`
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, query, groupID); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return total, nil
}

// Create inserts a new active enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.StudentGroup) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.StatusActive
	}
	const query = `INSERT INTO student_groups (id, student_id, group_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, enrollment.ID, enrollment.StudentID, enrollment.GroupID, enrollment.Status, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// UpdateGroup moves an enrollment to another group.
func (r *EnrollmentRepository) UpdateGroup(ctx context.Context, id, groupID string) error {
	const query = `UPDATE student_groups SET group_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, groupID, time.Now().UTC()); err != nil {
		return fmt.Errorf("transfer enrollment: %w", err)
	}
	return nil
}

// UpdateStatus changes the lifecycle status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	const query = `UPDATE student_groups SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}
