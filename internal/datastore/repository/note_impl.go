package repository

import (
	"context"
	"time"

	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
	"gorm.io/gorm"
)

// noteRepository implements NoteRepository.
type noteRepository struct {
	db       *gorm.DB
	observer Observer
}

// NewNoteRepository creates a new NoteRepository bound to db.
// A nil observer disables operation metrics.
func NewNoteRepository(db *gorm.DB, observer Observer) NoteRepository {
	return &noteRepository{
		db:       db,
		observer: observerOrNop(observer),
	}
}

func (r *noteRepository) observe(operation string, start time.Time, err error) {
	r.observer.ObserveOperation(operation, tableNotes, err, time.Since(start))
}

// dbFor returns a session whose query log lines carry the operation and table
func (r *noteRepository) dbFor(ctx context.Context, operation string) *gorm.DB {
	return r.db.WithContext(logger.WithQueryScope(ctx, operation, tableNotes))
}

// Create inserts the note and assigns its ID.
func (r *noteRepository) Create(ctx context.Context, note *entities.Note) (err error) {
	defer func(start time.Time) { r.observe("create", start, err) }(time.Now())

	if note == nil {
		return ErrInvalidInput
	}
	return dbError(r.dbFor(ctx, "create").Create(note).Error, "create", tableNotes)
}

// GetByID retrieves a note by its ID.
func (r *noteRepository) GetByID(ctx context.Context, id uint) (note *entities.Note, err error) {
	defer func(start time.Time) { r.observe("get", start, err) }(time.Now())

	var n entities.Note
	err = r.dbFor(ctx, "get").First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, dbError(err, "get", tableNotes)
	}
	return &n, nil
}

// List returns a page of notes and the total count of the filtered set.
func (r *noteRepository) List(ctx context.Context, filter NoteFilter) (notes []entities.Note, total int64, err error) {
	defer func(start time.Time) { r.observe("list", start, err) }(time.Now())

	limit, offset := clampPage(filter.Limit, filter.Offset)

	scoped := func() *gorm.DB {
		q := r.dbFor(ctx, "list").Model(&entities.Note{})
		if filter.OwnerID != nil {
			q = q.Where("owner_id = ?", *filter.OwnerID)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "count", tableNotes)
	}

	notes = make([]entities.Note, 0, min(limit, int(total)))
	if total == 0 {
		return notes, 0, nil
	}

	err = scoped().
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notes).Error
	if err != nil {
		return nil, 0, dbError(err, "list", tableNotes)
	}
	return notes, total, nil
}

// Update writes the mutable columns of an existing note.
func (r *noteRepository) Update(ctx context.Context, note *entities.Note) (err error) {
	defer func(start time.Time) { r.observe("update", start, err) }(time.Now())

	if note == nil || note.ID == 0 {
		return ErrInvalidInput
	}

	result := r.dbFor(ctx, "update").
		Model(&entities.Note{ID: note.ID}).
		Select("title", "content", "updated_at").
		Updates(map[string]any{
			"title":      note.Title,
			"content":    note.Content,
			"updated_at": note.UpdatedAt,
		})
	// RowsAffected is not checked: MySQL reports 0 for a no-op rewrite.
	return dbError(result.Error, "update", tableNotes)
}

// Delete removes the note permanently.
func (r *noteRepository) Delete(ctx context.Context, id uint) (err error) {
	defer func(start time.Time) { r.observe("delete", start, err) }(time.Now())

	result := r.dbFor(ctx, "delete").Delete(&entities.Note{}, id)
	if result.Error != nil {
		return dbError(result.Error, "delete", tableNotes)
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
