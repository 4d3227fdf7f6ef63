package models

import "time"

// Audit actions recorded for mutating endpoints.
const (
	AuditActionGroupCreate      = "GROUP_CREATE"
	AuditActionGroupUpdate      = "GROUP_UPDATE"
	AuditActionGroupDelete      = "GROUP_DELETE"
	AuditActionEnrollmentChange = "ENROLLMENT_CHANGE"
	AuditActionLessonChange     = "LESSON_CHANGE"
	AuditActionAttendanceMark   = "ATTENDANCE_MARK"
	AuditActionAttendanceClear  = "ATTENDANCE_CLEAR"
	AuditActionHomeworkCreate   = "HOMEWORK_CREATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole  *string   `db:"actor_role" json:"actor_role,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
