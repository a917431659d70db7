package datastore

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
	Pool     PoolConfig
	Logger   *logger.GormLoggerAdapter
}

// DSN returns the connection URL. Every component is escaped, so empty
// passwords and passwords with spaces or quotes survive parsing.
func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}, "TimeZone": {"UTC"}}.Encode(),
	}
	return u.String()
}

// PostgresManager handles the PostgreSQL backend.
type PostgresManager struct {
	db       *gorm.DB
	location string
}

// NewPostgresManager connects to the PostgreSQL database described by cfg.
func NewPostgresManager(cfg *PostgresConfig) (*PostgresManager, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	if err := configurePool(db, cfg.Pool); err != nil {
		return nil, err
	}

	return &PostgresManager{
		db:       db,
		location: fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}, nil
}

// Initialize runs the schema migrations.
func (m *PostgresManager) Initialize(ctx context.Context) error {
	return migrate(ctx, m.db)
}

// DB returns the underlying GORM database.
func (m *PostgresManager) DB() *gorm.DB {
	return m.db
}

// Path returns host:port/database.
func (m *PostgresManager) Path() string {
	return m.location
}

// Dialect returns the backend name.
func (m *PostgresManager) Dialect() string {
	return conf.DatabasePostgres
}

// Close closes the database connection.
func (m *PostgresManager) Close() error {
	return closeDB(m.db)
}
