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

const groupColumns = `g.id, g.name, g.description, g.course_id, g.teacher_id, g.room_id, g.start_date, g.start_time, g.week_day, g.max_student, g.status, g.created_at, g.updated_at`

// GroupRepository persists groups and answers room occupancy queries.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindByID returns a group regardless of status.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`
	var group models.Group
	if err := conn(ctx, r.db).GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// LockByID returns the group row locked for the rest of the current transaction.
func (r *GroupRepository) LockByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1 FOR UPDATE`
	var group models.Group
	if err := conn(ctx, r.db).GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindDetailByID returns a group joined with its course, room and teacher names.
func (r *GroupRepository) FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	query := `SELECT ` + groupColumns + `, c.name AS course_name, rm.name AS room_name,
	TRIM(t.first_name || ' ' || t.last_name) AS teacher_name
FROM groups g
JOIN courses c ON c.id = g.course_id
JOIN rooms rm ON rm.id = g.room_id
JOIN teachers t ON t.id = g.teacher_id
WHERE g.id = $1`
	var detail models.GroupDetail
	if err := conn(ctx, r.db).GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByName checks name uniqueness across groups of any status, optionally excluding one id.
func (r *GroupRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM groups WHERE name = $1`
	args := []interface{}{name}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`

	var exists int
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, args...); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// ListRoomSlots returns the footprint of every active group in the room except excludeID.
func (r *GroupRepository) ListRoomSlots(ctx context.Context, roomID, excludeID string) ([]models.RoomSlot, error) {
	query := `SELECT g.id AS group_id, g.name AS group_name, g.start_time, c.duration_hours, g.week_day
FROM groups g
JOIN courses c ON c.id = g.course_id
WHERE g.room_id = $1 AND g.status = 'active'`
	args := []interface{}{roomID}
	if excludeID != "" {
		query += ` AND g.id <> $2`
		args = append(args, excludeID)
	}
	query += ` ORDER BY g.start_time ASC`

	var slots []models.RoomSlot
	if err := conn(ctx, r.db).SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list room slots: %w", err)
	}
	return slots, nil
}

// Create inserts a group, assigning an id and timestamps when missing.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if group.Status == "" {
		group.Status = models.StatusActive
	}

	const query = `INSERT INTO groups (id, name, description, course_id, teacher_id, room_id, start_date, start_time, week_day, max_student, status, created_at, updated_at)
VALUES (:id, :name, :description, :course_id, :teacher_id, :room_id, :start_date, :start_time, :week_day, :max_student, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, group); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// Update persists every mutable field of the group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, description = :description, course_id = :course_id, teacher_id = :teacher_id,
room_id = :room_id, start_date = :start_date, start_time = :start_time, week_day = :week_day, max_student = :max_student, updated_at = :updated_at
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Deactivate flips the group and its active enrollments to inactive. Call inside a transaction.
func (r *GroupRepository) Deactivate(ctx context.Context, id string) (int64, error) {
	q := conn(ctx, r.db)
	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx, `UPDATE groups SET status = 'inactive', updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return 0, fmt.Errorf("deactivate group: %w", err)
	}
	res, err := q.ExecContext(ctx, `UPDATE student_groups SET status = 'inactive', updated_at = $2 WHERE group_id = $1 AND status = 'active'`, id, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate group enrollments: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// List returns groups in the given status with course, room and teacher names.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error) {
	status := filter.Status
	if status == "" {
		status = models.StatusActive
	}
	conditions := []string{"g.status = $1"}
	args := []interface{}{status}
	if filter.Name != "" {
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(g.name) LIKE $%d", len(args)))
	}
	if filter.MaxStudent != nil {
		args = append(args, *filter.MaxStudent)
		conditions = append(conditions, fmt.Sprintf("g.max_student = $%d", len(args)))
	}

	base := `FROM groups g
JOIN courses c ON c.id = g.course_id
JOIN rooms rm ON rm.id = g.room_id
JOIN teachers t ON t.id = g.teacher_id
WHERE ` + strings.Join(conditions, " AND ")

	_, size, offset := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s, c.name AS course_name, rm.name AS room_name,
	TRIM(t.first_name || ' ' || t.last_name) AS teacher_name
%s ORDER BY g.created_at DESC LIMIT %d OFFSET %d`, groupColumns, base, size, offset)

	var groups []models.GroupDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return groups, total, nil
}

// ListStudents returns the students actively enrolled in the group.
func (r *GroupRepository) ListStudents(ctx context.Context, groupID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.first_name, s.last_name, s.phone, s.email, s.birth_date, s.status, s.created_at, s.updated_at
FROM student_groups sg
JOIN students s ON s.id = sg.student_id
WHERE sg.group_id = $1 AND sg.status = 'active'
ORDER BY s.first_name ASC, s.last_name ASC`
	var students []models.Student
	if err := conn(ctx, r.db).SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}
