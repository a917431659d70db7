package repository

import (
	"context"
	"time"

	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// auditRepository implements AuditRepository.
type auditRepository struct {
	db       *gorm.DB
	observer Observer
}

// NewAuditRepository creates a new AuditRepository bound to db.
// A nil observer disables operation metrics.
func NewAuditRepository(db *gorm.DB, observer Observer) AuditRepository {
	return &auditRepository{
		db:       db,
		observer: observerOrNop(observer),
	}
}

func (r *auditRepository) observe(operation string, start time.Time, err error) {
	r.observer.ObserveOperation(operation, tableAuditLogs, err, time.Since(start))
}

// dbFor returns a session whose query log lines carry the operation and table
func (r *auditRepository) dbFor(ctx context.Context, operation string) *gorm.DB {
	return r.db.WithContext(logger.WithQueryScope(ctx, operation, tableAuditLogs))
}

// Append inserts a new audit entry.
func (r *auditRepository) Append(ctx context.Context, entry *entities.AuditLogEntry) (err error) {
	defer func(start time.Time) { r.observe("append", start, err) }(time.Now())

	if entry == nil || entry.ID != 0 || !entry.Action.Valid() || entry.Entity == "" {
		return ErrInvalidInput
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return dbError(r.dbFor(ctx, "append").Create(entry).Error, "append", tableAuditLogs)
}

// GetByID retrieves an audit entry by its ID.
func (r *auditRepository) GetByID(ctx context.Context, id uint) (entry *entities.AuditLogEntry, err error) {
	defer func(start time.Time) { r.observe("get", start, err) }(time.Now())

	var e entities.AuditLogEntry
	err = r.dbFor(ctx, "get").First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuditEntryNotFound
	}
	if err != nil {
		return nil, dbError(err, "get", tableAuditLogs)
	}
	return &e, nil
}

// List returns a page of audit entries and the total count of the filtered set.
func (r *auditRepository) List(ctx context.Context, filter AuditFilter) (entries []entities.AuditLogEntry, total int64, err error) {
	defer func(start time.Time) { r.observe("list", start, err) }(time.Now())

	limit, offset := clampPage(filter.Limit, filter.Offset)

	scoped := func() *gorm.DB {
		q := r.dbFor(ctx, "list").Model(&entities.AuditLogEntry{})
		if filter.Entity != "" {
			q = q.Where("entity = ?", filter.Entity)
		}
		if filter.EntityID != nil {
			q = q.Where("entity_id = ?", *filter.EntityID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "count", tableAuditLogs)
	}

	entries = make([]entities.AuditLogEntry, 0, min(limit, int(total)))
	if total == 0 {
		return entries, 0, nil
	}

	err = scoped().
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, dbError(err, "list", tableAuditLogs)
	}
	return entries, total, nil
}
