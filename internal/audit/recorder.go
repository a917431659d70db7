// Package audit builds audit log entries for note operations and appends them
// through the repository bound to the caller's transaction.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
)

// Event describes one auditable outcome.
type Event struct {
	Actor    access.Identity
	Action   entities.AuditAction
	EntityID *uint
	Before   entities.State
	After    entities.State
	Reason   *string
	// Error is the technical detail stored on ERROR entries.
	Error *string
}

// Recorder turns events into audit entries.
type Recorder struct {
	log   logger.Logger
	clock func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// NewRecorder creates a Recorder logging to log.
func NewRecorder(log logger.Logger, opts ...Option) *Recorder {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	r := &Recorder{
		log:   log,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends the entry for ev through repo. repo must belong to the same
// transaction as the mutation being audited; nothing is committed here.
func (r *Recorder) Record(ctx context.Context, repo repository.AuditRepository, ev Event) (*entities.AuditLogEntry, error) {
	entry := &entities.AuditLogEntry{
		UserID:      ev.Actor.UserID,
		Action:      ev.Action,
		Entity:      entities.EntityNote,
		EntityID:    ev.EntityID,
		BeforeState: ev.Before,
		AfterState:  ev.After,
		Reason:      ev.Reason,
		Error:       ev.Error,
		Timestamp:   r.clock().UTC(),
	}

	if err := repo.Append(ctx, entry); err != nil {
		return nil, errors.New(err).
			Component("audit").
			Category(errors.CategoryDatabase).
			Context("action", string(ev.Action)).
			Build()
	}

	r.log.WithContext(ctx).Info(
		fmt.Sprintf("Audit: action=%s entity=%s id=%s user=%s reason=%s",
			entry.Action, entry.Entity, formatID(entry.EntityID), formatString(entry.UserID), formatString(entry.Reason)),
		logger.String("action", string(entry.Action)),
		logger.Uint("audit_id", entry.ID))

	return entry, nil
}

// ErrorDetail formats the detail stored on ERROR entries.
func ErrorDetail(operation string, err error) *string {
	detail := fmt.Sprintf("%s: %v", operation, err)
	return &detail
}

func formatID(id *uint) string {
	if id == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *id)
}

func formatString(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
