package models

import "time"

// Audit action kinds.
const (
	AuditActionCreate        = "create"
	AuditActionUpdate        = "update"
	AuditActionDelete        = "delete"
	AuditActionApplyTemplate = "apply_template"
	AuditActionAutoFill      = "auto_fill"
	AuditActionCancel        = "cancel"
)

// AuditLogEntry is one row of the append-only audit trail. Entries are
// written by every mutating operation and never read back except for display.
type AuditLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	UserID     *int64    `json:"user_id,omitempty" db:"user_id"`
	UserName   *string   `json:"user_name,omitempty" db:"user_name"`
	Action     string    `json:"action" db:"action"`
	TableName  string    `json:"table_name" db:"table_name"`
	RecordID   string    `json:"record_id" db:"record_id"`
	Details    *string   `json:"details,omitempty" db:"details"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
