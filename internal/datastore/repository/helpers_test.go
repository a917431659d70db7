package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with the schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entities.Note{}, &entities.AuditLogEntry{}))
	return db
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

// baseTime is a fixed instant so ordering assertions do not depend on the wall clock
var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newNote(title, owner string, offset time.Duration) *entities.Note {
	n := &entities.Note{
		Title:     title,
		Content:   "content of " + title,
		CreatedAt: baseTime.Add(offset),
		UpdatedAt: baseTime.Add(offset),
	}
	if owner != "" {
		n.OwnerID = strPtr(owner)
	}
	return n
}
