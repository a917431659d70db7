// Package notes implements the note operations. Every mutation and its audit
// entry are written in one transaction.
package notes

import (
	"context"
	"time"

	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/audit"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
)

// Operation names used in logs, metrics and ERROR audit entries.
const (
	OpCreate    = "create"
	OpList      = "list"
	OpGet       = "get"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpListAudit = "list_audit"
	OpGetAudit  = "get_audit"
)

// Metrics receives operation outcomes and committed audit entries.
type Metrics interface {
	RecordNoteOperation(operation, outcome string)
	RecordAuditEntry(action string)
}

// CreateInput is the payload of a create request.
type CreateInput struct {
	Title   string
	Content string
	Reason  *string
}

// UpdateInput is the payload of an update request. Nil fields are left unchanged.
type UpdateInput struct {
	Title   *string
	Content *string
	Reason  *string
}

// Page is one page of notes.
type Page struct {
	Items  []entities.Note
	Total  int64
	Limit  int
	Offset int
}

// AuditQuery selects audit entries for the admin listing.
type AuditQuery struct {
	EntityID *uint
	Action   entities.AuditAction
	Limit    int
	Offset   int
}

// AuditPage is one page of audit entries.
type AuditPage struct {
	Items  []entities.AuditLogEntry
	Total  int64
	Limit  int
	Offset int
}

// Service runs note operations for a resolved identity.
type Service struct {
	store    *datastore.Store
	recorder *audit.Recorder
	settings conf.AuditSettings
	log      logger.Logger
	clock    func() time.Time
	metrics  Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for note and audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service on top of store.
func NewService(store *datastore.Store, settings conf.AuditSettings, opts ...Option) *Service {
	s := &Service{
		store:    store,
		settings: settings,
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	s.recorder = audit.NewRecorder(s.log.Module("audit"), audit.WithClock(s.now))
	return s
}

// now returns the current time in UTC
func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// Create stores a new note owned by the caller.
func (s *Service) Create(ctx context.Context, id access.Identity, in CreateInput) (note *entities.Note, err error) {
	defer func() { s.finish(ctx, OpCreate, id, nil, in.Reason, err) }()

	if err = access.Authorize(id.Role, access.MemberRoles...); err != nil {
		return nil, err
	}
	if in, err = ValidateCreate(in); err != nil {
		return nil, err
	}

	var entry *entities.AuditLogEntry
	err = s.store.Transaction(ctx, func(tx *datastore.Store) error {
		now := s.now()
		created := &entities.Note{
			Title:     in.Title,
			Content:   in.Content,
			OwnerID:   copyString(id.UserID),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Notes().Create(ctx, created); err != nil {
			return err
		}

		recorded, err := s.recorder.Record(ctx, tx.Audit(), audit.Event{
			Actor:    id,
			Action:   entities.ActionCreate,
			EntityID: &created.ID,
			After:    created.Snapshot(),
			Reason:   in.Reason,
		})
		if err != nil {
			return err
		}
		note, entry = created, recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entry)
	return note, nil
}

// List returns the caller's notes, or every note for admins.
func (s *Service) List(ctx context.Context, id access.Identity, limit, offset int) (page *Page, err error) {
	defer func() { s.observe(OpList, err) }()

	if err = access.Authorize(id.Role, access.MemberRoles...); err != nil {
		return nil, err
	}
	if err = ValidatePage(limit, offset); err != nil {
		return nil, err
	}

	page = &Page{Items: []entities.Note{}, Limit: limit, Offset: offset}

	filter := repository.NoteFilter{Limit: limit, Offset: offset}
	if !id.IsAdmin() {
		if id.UserID == nil {
			// Anonymous callers own nothing
			return page, nil
		}
		filter.OwnerID = id.UserID
	}

	err = s.store.Transaction(ctx, func(tx *datastore.Store) error {
		items, total, err := tx.Notes().List(ctx, filter)
		if err != nil {
			return err
		}
		page.Items, page.Total = items, total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Get returns one note. Notes the caller may not see are reported as not found.
func (s *Service) Get(ctx context.Context, id access.Identity, noteID uint) (note *entities.Note, err error) {
	defer func() { s.observe(OpGet, err) }()

	if err = access.Authorize(id.Role, access.MemberRoles...); err != nil {
		return nil, err
	}

	var entry *entities.AuditLogEntry
	err = s.store.Transaction(ctx, func(tx *datastore.Store) error {
		found, err := s.locate(ctx, tx, id, noteID)
		if err != nil {
			return err
		}
		if s.settings.RecordReads {
			if entry, err = s.recorder.Record(ctx, tx.Audit(), audit.Event{
				Actor:    id,
				Action:   entities.ActionRead,
				EntityID: &found.ID,
			}); err != nil {
				return err
			}
		}
		note = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entry)
	return note, nil
}

// Update changes title and/or content of a note and refreshes updated_at.
func (s *Service) Update(ctx context.Context, id access.Identity, noteID uint, in UpdateInput) (note *entities.Note, err error) {
	defer func() { s.finish(ctx, OpUpdate, id, &noteID, in.Reason, err) }()

	if err = access.Authorize(id.Role, access.MemberRoles...); err != nil {
		return nil, err
	}
	if in, err = ValidateUpdate(in); err != nil {
		return nil, err
	}

	var entry *entities.AuditLogEntry
	err = s.store.Transaction(ctx, func(tx *datastore.Store) error {
		current, err := s.locate(ctx, tx, id, noteID)
		if err != nil {
			return err
		}
		if in.Title == nil && in.Content == nil {
			return errors.New(ErrNoFieldsToUpdate).
				Component("notes").
				Category(errors.CategoryValidation).
				Context("note_id", noteID).
				Build()
		}

		before := current.Snapshot()
		if in.Title != nil {
			current.Title = *in.Title
		}
		if in.Content != nil {
			current.Content = *in.Content
		}
		current.UpdatedAt = s.now()

		if err := tx.Notes().Update(ctx, current); err != nil {
			return err
		}

		recorded, err := s.recorder.Record(ctx, tx.Audit(), audit.Event{
			Actor:    id,
			Action:   entities.ActionUpdate,
			EntityID: &current.ID,
			Before:   before,
			After:    current.Snapshot(),
			Reason:   in.Reason,
		})
		if err != nil {
			return err
		}
		note, entry = current, recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entry)
	return note, nil
}

// Delete removes a note. The reason, when given, is stored on the audit entry.
func (s *Service) Delete(ctx context.Context, id access.Identity, noteID uint, reason *string) (err error) {
	defer func() { s.finish(ctx, OpDelete, id, &noteID, reason, err) }()

	if err = access.Authorize(id.Role, access.MemberRoles...); err != nil {
		return err
	}

	var entry *entities.AuditLogEntry
	err = s.store.Transaction(ctx, func(tx *datastore.Store) error {
		current, err := s.locate(ctx, tx, id, noteID)
		if err != nil {
			return err
		}
		if err := tx.Notes().Delete(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrNoteNotFound) {
				return notFound(noteID)
			}
			return err
		}

		entry, err = s.recorder.Record(ctx, tx.Audit(), audit.Event{
			Actor:    id,
			Action:   entities.ActionDelete,
			EntityID: &current.ID,
			Before:   current.Snapshot(),
			Reason:   reason,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.committed(entry)
	return nil
}

// ListAudit returns audit entries for notes. Only admins may read the trail.
func (s *Service) ListAudit(ctx context.Context, id access.Identity, q AuditQuery) (page *AuditPage, err error) {
	defer func() { s.observe(OpListAudit, err) }()

	if err = access.Authorize(id.Role, access.RoleAdmin); err != nil {
		return nil, err
	}
	if err = ValidatePage(q.Limit, q.Offset); err != nil {
		return nil, err
	}
	if q.Action != "" && !q.Action.Valid() {
		verr := &ValidationError{}
		verr.add("action", "must be one of CREATE, READ, UPDATE, DELETE, ERROR")
		return nil, verr
	}

	items, total, err := s.store.Audit().List(ctx, repository.AuditFilter{
		Entity:   entities.EntityNote,
		EntityID: q.EntityID,
		Action:   q.Action,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &AuditPage{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// GetAuditEntry returns one audit entry by id. Only admins may read the trail.
func (s *Service) GetAuditEntry(ctx context.Context, id access.Identity, entryID uint) (entry *entities.AuditLogEntry, err error) {
	defer func() { s.observe(OpGetAudit, err) }()

	if err = access.Authorize(id.Role, access.RoleAdmin); err != nil {
		return nil, err
	}

	entry, err = s.store.Audit().GetByID(ctx, entryID)
	if errors.Is(err, repository.ErrAuditEntryNotFound) {
		return nil, errors.New(ErrAuditEntryNotFound).
			Component("notes").
			Category(errors.CategoryNotFound).
			Context("audit_id", entryID).
			Build()
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// locate loads a note the caller may access, folding "absent" and
// "not yours" into the same not-found error
func (s *Service) locate(ctx context.Context, tx *datastore.Store, id access.Identity, noteID uint) (*entities.Note, error) {
	note, err := tx.Notes().GetByID(ctx, noteID)
	if errors.Is(err, repository.ErrNoteNotFound) {
		return nil, notFound(noteID)
	}
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(id.Role, id.UserID, note.OwnerID) {
		return nil, notFound(noteID)
	}
	return note, nil
}

// committed reports an audit entry whose transaction has committed
func (s *Service) committed(entry *entities.AuditLogEntry) {
	if entry != nil && s.metrics != nil {
		s.metrics.RecordAuditEntry(string(entry.Action))
	}
}

// observe records the outcome of an operation and logs unexpected failures
func (s *Service) observe(operation string, err error) {
	outcome := outcomeOf(err)
	if s.metrics != nil {
		s.metrics.RecordNoteOperation(operation, outcome)
	}
	if outcome == OutcomeError {
		s.log.Error("note operation failed",
			logger.String("operation", operation),
			logger.Error(err))
	}
}

// finish observes a mutating operation and, when enabled, records its
// failure as an ERROR entry. The failed transaction has already rolled back,
// so the entry is written in a transaction of its own.
func (s *Service) finish(ctx context.Context, operation string, id access.Identity, noteID *uint, reason *string, err error) {
	s.observe(operation, err)
	if err == nil || !s.settings.RecordErrors {
		return
	}

	// The request may already be cancelled; the failure must still be recorded
	ctx = context.WithoutCancel(ctx)

	var entry *entities.AuditLogEntry
	recordErr := s.store.Transaction(ctx, func(tx *datastore.Store) error {
		var appendErr error
		entry, appendErr = s.recorder.Record(ctx, tx.Audit(), audit.Event{
			Actor:    id,
			Action:   entities.ActionError,
			EntityID: noteID,
			Reason:   reason,
			Error:    audit.ErrorDetail(operation, err),
		})
		return appendErr
	})
	if recordErr != nil {
		s.log.WithContext(ctx).Error("failed to record error audit entry",
			logger.String("operation", operation),
			logger.Error(recordErr))
		return
	}
	s.committed(entry)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
