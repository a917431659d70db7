package repository

import (
	"context"

	"github.com/tphakala/notekeeper/internal/datastore/entities"
)

// NoteFilter selects a page of notes.
type NoteFilter struct {
	// OwnerID restricts results to notes with this owner when set.
	OwnerID *string
	Limit   int
	Offset  int
}

// NoteRepository handles note persistence.
type NoteRepository interface {
	// Create inserts the note and assigns its ID.
	Create(ctx context.Context, note *entities.Note) error
	// GetByID returns ErrNoteNotFound when no note has the ID.
	GetByID(ctx context.Context, id uint) (*entities.Note, error)
	// List returns one page ordered by created_at desc, id desc, plus the
	// size of the whole filtered set.
	List(ctx context.Context, filter NoteFilter) ([]entities.Note, int64, error)
	// Update writes title, content and updated_at of the note with note.ID.
	Update(ctx context.Context, note *entities.Note) error
	// Delete hard deletes the note; ErrNoteNotFound when nothing was removed.
	Delete(ctx context.Context, id uint) error
}
