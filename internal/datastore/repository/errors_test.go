package repository

import (
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/errors"
)

func TestDBErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		busy     bool
		category errors.ErrorCategory
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true, errors.CategoryConflict},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true, errors.CategoryConflict},
		{"corrupt", sqlite3.Error{Code: sqlite3.ErrCorrupt}, false, errors.CategoryDatabase},
		{"generic", assert.AnError, false, errors.CategoryDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := dbError(tt.err, "create", tableNotes)
			require.Error(t, err)
			assert.Equal(t, tt.busy, errors.Is(err, ErrDatabaseBusy))
			assert.True(t, errors.IsCategory(err, tt.category))
			assert.ErrorIs(t, err, tt.err, "driver error stays in the chain")

			var ee *errors.EnhancedError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, "create", ee.GetContext()["operation"])
			assert.Equal(t, tableNotes, ee.GetContext()["table"])
			if tt.busy {
				assert.Equal(t, true, ee.GetContext()["retryable"])
			}
		})
	}

	assert.NoError(t, dbError(nil, "create", tableNotes))
}
