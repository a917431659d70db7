package repository

import (
	"context"

	"github.com/tphakala/notekeeper/internal/datastore/entities"
)

// AuditFilter selects a page of audit entries. Zero values match everything.
type AuditFilter struct {
	Entity   string
	EntityID *uint
	Action   entities.AuditAction
	UserID   *string
	Limit    int
	Offset   int
}

// AuditRepository is append-only: entries can be added and read, never changed.
type AuditRepository interface {
	// Append inserts a new entry. Entries that already have an ID are rejected.
	Append(ctx context.Context, entry *entities.AuditLogEntry) error
	// GetByID returns ErrAuditEntryNotFound when no entry has the ID.
	GetByID(ctx context.Context, id uint) (*entities.AuditLogEntry, error)
	// List returns one page ordered by timestamp desc, id desc, plus the
	// size of the whole filtered set.
	List(ctx context.Context, filter AuditFilter) ([]entities.AuditLogEntry, int64, error)
}
