// config.go: This file contains the configuration for notekeeper. It defines the settings struct and the loader.
package conf

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
)

// Database backends
const (
	DatabaseSQLite   = "sqlite"
	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
)

// ServerSettings contains settings for the HTTP API server.
type ServerSettings struct {
	Host            string        // listen address
	Port            int           // listen port
	ReadTimeout     time.Duration // maximum duration for reading a request
	WriteTimeout    time.Duration // maximum duration before timing out writes of the response
	ShutdownTimeout time.Duration // grace period for in-flight requests on shutdown

	CORS struct {
		Enabled      bool     // true to add CORS headers
		AllowOrigins []string // allowed origins, "*" for any
	}
}

// Addr returns the host:port listen address
func (s *ServerSettings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SQLiteSettings contains settings for the SQLite backend.
type SQLiteSettings struct {
	Path string // path to sqlite database file
}

// MySQLSettings contains settings for the MySQL backend.
type MySQLSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// PostgresSettings contains settings for the PostgreSQL backend.
type PostgresSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

// DatabaseSettings selects and configures the storage backend.
type DatabaseSettings struct {
	Type               string        // sqlite, mysql or postgres
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
	Postgres           PostgresSettings
	MaxOpenConns       int           // connection pool size
	MaxIdleConns       int           // idle connections kept in the pool
	ConnMaxLifetime    time.Duration // recycle connections after this long
	SlowQueryThreshold time.Duration // queries slower than this are logged at warn
}

// AuditSettings controls which events reach the audit trail beyond mutations.
type AuditSettings struct {
	RecordErrors bool // write an ERROR entry when a mutating operation fails
	RecordReads  bool // write a READ entry for every successful single note read
}

// RateLimitSettings configures the per-identity request limiter.
type RateLimitSettings struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration // forget limiters of identities idle this long
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
	Path    string
}

// SentrySettings configures error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// LoggingSettings configures the central logger.
type LoggingSettings struct {
	DefaultLevel string
	Timezone     string
	Console      struct {
		Enabled bool
		Level   string
	}
	FileOutput struct {
		Enabled bool
		Path    string
		Level   string
	}
	ModuleLevels map[string]string
}

// Settings contains all configuration options for notekeeper.
type Settings struct {
	Debug bool // true to enable debug logging everywhere

	Server    ServerSettings
	Database  DatabaseSettings
	Audit     AuditSettings
	RateLimit RateLimitSettings
	Metrics   MetricsSettings
	Sentry    SentrySettings
	Logging   LoggingSettings
}

// LoggerConfig converts the logging settings into the logger package configuration.
// Debug mode lowers every output to debug.
func (s *Settings) LoggerConfig() *logger.LoggingConfig {
	cfg := &logger.LoggingConfig{
		DefaultLevel: s.Logging.DefaultLevel,
		Timezone:     s.Logging.Timezone,
		Console: &logger.ConsoleOutput{
			Enabled: s.Logging.Console.Enabled,
			Level:   s.Logging.Console.Level,
		},
		FileOutput: &logger.FileOutput{
			Enabled: s.Logging.FileOutput.Enabled,
			Path:    s.Logging.FileOutput.Path,
			Level:   s.Logging.FileOutput.Level,
		},
		ModuleLevels: s.Logging.ModuleLevels,
	}
	if s.Debug {
		cfg.DefaultLevel = string(logger.LogLevelDebug)
		cfg.Console.Level = string(logger.LogLevelDebug)
		cfg.FileOutput.Level = string(logger.LogLevelDebug)
	}
	return cfg
}

var settingsMutex sync.Mutex

// Load reads the configuration file and environment variables into Settings.
// An empty configFile searches the default config paths.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values, env bindings and the configuration file.
func initViper(configFile string) error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file, defaults and environment apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}
