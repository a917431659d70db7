// Package datastore opens the configured database backend and exposes the
// transactional Store used by the notes service.
package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/logger"
	"gorm.io/gorm"
)

// Manager defines the lifecycle of a database backend.
type Manager interface {
	// Initialize runs the schema migrations.
	Initialize(ctx context.Context) error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host/database for servers).
	Path() string
	// Dialect returns the backend name: sqlite, mysql or postgres.
	Dialect() string
	// Close closes the database connection.
	Close() error
}

// PoolConfig holds connection pool settings shared by all backends.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens the backend selected by settings.Type.
func New(settings *conf.DatabaseSettings, log logger.Logger) (Manager, error) {
	pool := PoolConfig{
		MaxOpenConns:    settings.MaxOpenConns,
		MaxIdleConns:    settings.MaxIdleConns,
		ConnMaxLifetime: settings.ConnMaxLifetime,
	}
	gormLog := logger.NewGormLoggerAdapter(log, settings.SlowQueryThreshold)

	switch settings.Type {
	case conf.DatabaseSQLite:
		return NewSQLiteManager(&SQLiteConfig{
			Path:   settings.SQLite.Path,
			Pool:   pool,
			Logger: gormLog,
		})
	case conf.DatabaseMySQL:
		return NewMySQLManager(&MySQLConfig{
			Host:     settings.MySQL.Host,
			Port:     settings.MySQL.Port,
			Username: settings.MySQL.Username,
			Password: settings.MySQL.Password,
			Database: settings.MySQL.Database,
			Pool:     pool,
			Logger:   gormLog,
		})
	case conf.DatabasePostgres:
		return NewPostgresManager(&PostgresConfig{
			Host:     settings.Postgres.Host,
			Port:     settings.Postgres.Port,
			Username: settings.Postgres.Username,
			Password: settings.Postgres.Password,
			Database: settings.Postgres.Database,
			SSLMode:  settings.Postgres.SSLMode,
			Pool:     pool,
			Logger:   gormLog,
		})
	default:
		return nil, fmt.Errorf("unsupported database type %q", settings.Type)
	}
}

// gormConfig returns the GORM configuration shared by all backends.
// Timestamps written by GORM itself are UTC.
func gormConfig(log *logger.GormLoggerAdapter) *gorm.Config {
	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if log != nil {
		cfg.Logger = log
	}
	return cfg
}

// configurePool applies pool settings; zero values keep database/sql defaults.
func configurePool(db *gorm.DB, pool PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}

// migrate creates or updates the notes and audit_logs tables.
func migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Note{}, &entities.AuditLogEntry{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// closeDB closes the connection pool behind db.
func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
