package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/educenter-api/internal/models"
)

// AuditRepository appends audit trail records.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, actor_id, actor_role, action, resource, resource_id, details, ip_address, user_agent, created_at)
VALUES (:id, :actor_id, :actor_role, :action, :resource, :resource_id, CAST(convert_from(:details, 'UTF8') AS JSONB), :ip_address, :user_agent, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, log); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
