// env.go - Environment variable configuration and validation for notekeeper
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/notekeeper/internal/logger"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "NOTEKEEPER_DEBUG", validateEnvBool},

		// HTTP server
		{"server.host", "NOTEKEEPER_SERVER_HOST", nil},
		{"server.port", "NOTEKEEPER_SERVER_PORT", validateEnvPort},
		{"server.shutdowntimeout", "NOTEKEEPER_SERVER_SHUTDOWNTIMEOUT", validateEnvDuration},

		// Database
		{"database.type", "NOTEKEEPER_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "NOTEKEEPER_DATABASE_SQLITE_PATH", nil},
		{"database.mysql.host", "NOTEKEEPER_DATABASE_MYSQL_HOST", nil},
		{"database.mysql.port", "NOTEKEEPER_DATABASE_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "NOTEKEEPER_DATABASE_MYSQL_USERNAME", nil},
		{"database.mysql.password", "NOTEKEEPER_DATABASE_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "NOTEKEEPER_DATABASE_MYSQL_DATABASE", nil},
		{"database.postgres.host", "NOTEKEEPER_DATABASE_POSTGRES_HOST", nil},
		{"database.postgres.port", "NOTEKEEPER_DATABASE_POSTGRES_PORT", validateEnvPort},
		{"database.postgres.username", "NOTEKEEPER_DATABASE_POSTGRES_USERNAME", nil},
		{"database.postgres.password", "NOTEKEEPER_DATABASE_POSTGRES_PASSWORD", nil},
		{"database.postgres.database", "NOTEKEEPER_DATABASE_POSTGRES_DATABASE", nil},
		{"database.postgres.sslmode", "NOTEKEEPER_DATABASE_POSTGRES_SSLMODE", nil},

		// Audit
		{"audit.recorderrors", "NOTEKEEPER_AUDIT_RECORDERRORS", validateEnvBool},
		{"audit.recordreads", "NOTEKEEPER_AUDIT_RECORDREADS", validateEnvBool},

		// Rate limiting
		{"ratelimit.enabled", "NOTEKEEPER_RATELIMIT_ENABLED", validateEnvBool},
		{"ratelimit.requestspersecond", "NOTEKEEPER_RATELIMIT_REQUESTSPERSECOND", validateEnvPositiveFloat},
		{"ratelimit.burst", "NOTEKEEPER_RATELIMIT_BURST", validateEnvPositiveInt},

		// Observability
		{"metrics.enabled", "NOTEKEEPER_METRICS_ENABLED", validateEnvBool},
		{"sentry.enabled", "NOTEKEEPER_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "NOTEKEEPER_SENTRY_DSN", nil},
		{"sentry.environment", "NOTEKEEPER_SENTRY_ENVIRONMENT", nil},

		// Logging
		{"logging.defaultlevel", "NOTEKEEPER_LOGGING_DEFAULTLEVEL", validateEnvLogLevel},
		{"logging.console.level", "NOTEKEEPER_LOGGING_CONSOLE_LEVEL", validateEnvLogLevel},
		{"logging.timezone", "NOTEKEEPER_LOGGING_TIMEZONE", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

// validateEnvPort validates TCP port numbers
func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}

// validateEnvDuration validates Go duration strings such as "10s"
func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("must be a duration like 10s or 1m")
	}
	return nil
}

// validateEnvDatabaseType validates the storage backend name
func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL, DatabasePostgres:
		return nil
	default:
		return fmt.Errorf("must be one of %s, %s, %s", DatabaseSQLite, DatabaseMySQL, DatabasePostgres)
	}
}

// validateEnvPositiveFloat validates strictly positive decimal numbers
func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

// validateEnvPositiveInt validates strictly positive integers
func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

// validateEnvLogLevel validates log level names
func validateEnvLogLevel(value string) error {
	if !logger.IsValidLevel(value) {
		return fmt.Errorf("must be one of trace, debug, info, warn, error")
	}
	return nil
}
