package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	Path   string
	Pool   PoolConfig
	Logger *logger.GormLoggerAdapter
}

// SQLiteManager handles the SQLite backend.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteManager opens (creating if needed) the SQLite database at cfg.Path.
func NewSQLiteManager(cfg *SQLiteConfig) (*SQLiteManager, error) {
	dsn := cfg.Path
	pool := cfg.Pool

	if cfg.Path == MemoryPath {
		// Each connection to :memory: is a separate database, keep exactly one
		pool.MaxOpenConns = 1
		pool.ConnMaxLifetime = 0
	} else {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// Build DSN with recommended SQLite pragmas
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", cfg.Path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := configurePool(db, pool); err != nil {
		return nil, err
	}

	return &SQLiteManager{
		db:     db,
		dbPath: cfg.Path,
	}, nil
}

// Initialize runs the schema migrations.
func (m *SQLiteManager) Initialize(ctx context.Context) error {
	return migrate(ctx, m.db)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Dialect returns the backend name.
func (m *SQLiteManager) Dialect() string {
	return conf.DatabaseSQLite
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return closeDB(m.db)
}
