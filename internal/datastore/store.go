package datastore

import (
	"context"
	"time"

	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/errors"
	"gorm.io/gorm"
)

// Metrics receives repository and transaction outcomes.
type Metrics interface {
	repository.Observer
	ObserveTransaction(err error, elapsed time.Duration)
}

// Store bundles the repositories bound to one *gorm.DB, either the
// connection pool or an open transaction.
type Store struct {
	db      *gorm.DB
	metrics Metrics
	notes   repository.NoteRepository
	audit   repository.AuditRepository
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics records repository and transaction metrics.
func WithMetrics(m Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a Store on top of db.
func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s.bind(db)
}

// bind returns a Store sharing s's configuration whose repositories use db
func (s *Store) bind(db *gorm.DB) *Store {
	var observer repository.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	return &Store{
		db:      db,
		metrics: s.metrics,
		notes:   repository.NewNoteRepository(db, observer),
		audit:   repository.NewAuditRepository(db, observer),
	}
}

// Notes returns the note repository.
func (s *Store) Notes() repository.NoteRepository {
	return s.notes
}

// Audit returns the audit repository.
func (s *Store) Audit() repository.AuditRepository {
	return s.audit
}

// Transaction runs fn inside a database transaction. The Store passed to fn
// is bound to the transaction; fn returning an error or panicking rolls back
// everything it wrote, otherwise the transaction commits.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.bind(tx))
	})
	if s.metrics != nil {
		s.metrics.ObserveTransaction(err, time.Since(start))
	}
	return err
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.New(err).Component("datastore").Category(errors.CategoryDatabase).Build()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.New(err).Component("datastore").Category(errors.CategoryDatabase).Build()
	}
	return nil
}
