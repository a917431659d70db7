package datastore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/logger"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysqlIOTimeout bounds dialing and each read or write on a MySQL connection.
const mysqlIOTimeout = 30 * time.Second

// MySQLConfig holds MySQL-specific configuration.
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Pool     PoolConfig
	Logger   *logger.GormLoggerAdapter
}

// DSN returns the go-sql-driver connection string. Times are read back as UTC.
func (c *MySQLConfig) DSN() string {
	// Build from mysql.Config so credentials are escaped
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = mysqlIOTimeout
	cfg.ReadTimeout = mysqlIOTimeout
	cfg.WriteTimeout = mysqlIOTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// MySQLManager handles the MySQL backend.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
}

// NewMySQLManager connects to the MySQL database described by cfg.
func NewMySQLManager(cfg *MySQLConfig) (*MySQLManager, error) {
	db, err := gorm.Open(gormmysql.Open(cfg.DSN()), gormConfig(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := configurePool(db, cfg.Pool); err != nil {
		return nil, err
	}

	return &MySQLManager{
		db:       db,
		location: fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}, nil
}

// Initialize runs the schema migrations.
func (m *MySQLManager) Initialize(ctx context.Context) error {
	return migrate(ctx, m.db)
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns host:port/database.
func (m *MySQLManager) Path() string {
	return m.location
}

// Dialect returns the backend name.
func (m *MySQLManager) Dialect() string {
	return conf.DatabaseMySQL
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	return closeDB(m.db)
}
