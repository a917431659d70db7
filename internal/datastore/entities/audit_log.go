package entities

import (
	"time"

	"github.com/tphakala/notekeeper/internal/errors"
	"gorm.io/gorm"
)

// AuditAction is the kind of event an audit entry records.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionRead   AuditAction = "READ"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
	ActionError  AuditAction = "ERROR"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionError:
		return true
	default:
		return false
	}
}

// EntityNote is the entity name recorded for note operations.
const EntityNote = "Note"

// State is a structured snapshot of an entity, stored as JSON.
type State map[string]any

// ErrAuditImmutable is returned by the ORM hooks when code tries to change or
// remove an audit entry.
var ErrAuditImmutable = errors.NewStd("audit log entries are immutable")

// AuditLogEntry is an immutable record of a state transition or failure.
type AuditLogEntry struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      *string     `gorm:"size:255;index" json:"user_id"`
	Action      AuditAction `gorm:"size:16;not null;index" json:"action"`
	Entity      string      `gorm:"size:64;not null;index:idx_audit_logs_entity" json:"entity"`
	EntityID    *uint       `gorm:"index:idx_audit_logs_entity" json:"entity_id"`
	BeforeState State       `gorm:"type:text;serializer:json" json:"before_state"`
	AfterState  State       `gorm:"type:text;serializer:json" json:"after_state"`
	Reason      *string     `gorm:"type:text" json:"reason"`
	Error       *string     `gorm:"type:text" json:"error"`
	Timestamp   time.Time   `gorm:"not null;index" json:"timestamp"`
}

// TableName returns the table name for GORM.
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// BeforeUpdate rejects any update of a persisted entry.
func (e *AuditLogEntry) BeforeUpdate(_ *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete rejects any deletion of a persisted entry.
func (e *AuditLogEntry) BeforeDelete(_ *gorm.DB) error {
	return ErrAuditImmutable
}
