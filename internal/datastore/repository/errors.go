package repository

import (
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrNoteNotFound indicates the requested note does not exist.
	ErrNoteNotFound = errors.NewStd("note not found")

	// ErrAuditEntryNotFound indicates the requested audit entry does not exist.
	ErrAuditEntryNotFound = errors.NewStd("audit entry not found")

	// ErrAuditImmutable indicates an attempt to rewrite an existing audit entry.
	ErrAuditImmutable = entities.ErrAuditImmutable

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")

	// ErrDatabaseBusy indicates lock contention that a later retry can clear.
	ErrDatabaseBusy = errors.NewStd("database is busy")
)

// dbError wraps a GORM failure with the operation and table it happened in
func dbError(err error, operation, table string) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return errors.New(fmt.Errorf("%w: %w", ErrDatabaseBusy, err)).
			Component("datastore").
			Category(errors.CategoryConflict).
			Priority(errors.PriorityLow).
			Context("operation", operation).
			Context("table", table).
			Context("retryable", true).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table", table).
		Build()
}

// isBusy reports SQLite lock contention (SQLITE_BUSY, SQLITE_LOCKED)
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
