package models

import "time"

// Audit actions written by assignment and session mutations.
const (
	AuditActionAssignmentUpsert  = "ASSIGNMENT_UPSERT"
	AuditActionAssignmentRemove  = "ASSIGNMENT_REMOVE"
	AuditActionSessionOpen       = "SESSION_OPEN"
	AuditActionSessionClose      = "SESSION_CLOSE"
	AuditActionTeacherCreate     = "TEACHER_CREATE"
	AuditActionTeacherDeactivate = "TEACHER_DEACTIVATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	RequestID  *string   `db:"request_id" json:"requestId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
