// conf/validate.go

package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/notekeeper/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateServerSettings,
		validateDatabaseSettings,
		validateRateLimitSettings,
		validateMetricsSettings,
		validateSentrySettings,
		validateLoggingSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateServerSettings(settings *Settings) []string {
	var errs []string
	s := &settings.Server
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d must be between 1 and 65535", s.Port))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdowntimeout must not be negative")
	}
	if s.CORS.Enabled && len(s.CORS.AllowOrigins) == 0 {
		errs = append(errs, "server.cors.alloworigins must list at least one origin when CORS is enabled")
	}
	return errs
}

func validateDatabaseSettings(settings *Settings) []string {
	var errs []string
	db := &settings.Database
	db.Type = strings.ToLower(strings.TrimSpace(db.Type))

	switch db.Type {
	case DatabaseSQLite:
		if db.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path is required for the sqlite backend")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" || db.MySQL.Database == "" {
			errs = append(errs, "database.mysql.host and database.mysql.database are required for the mysql backend")
		}
	case DatabasePostgres:
		if db.Postgres.Host == "" || db.Postgres.Database == "" {
			errs = append(errs, "database.postgres.host and database.postgres.database are required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type %q must be one of %s, %s, %s", db.Type, DatabaseSQLite, DatabaseMySQL, DatabasePostgres))
	}

	if db.MaxOpenConns < 0 || db.MaxIdleConns < 0 {
		errs = append(errs, "database connection pool sizes must not be negative")
	}
	return errs
}

func validateRateLimitSettings(settings *Settings) []string {
	rl := &settings.RateLimit
	if !rl.Enabled {
		return nil
	}
	var errs []string
	if rl.RequestsPerSecond <= 0 {
		errs = append(errs, "ratelimit.requestspersecond must be positive")
	}
	if rl.Burst <= 0 {
		errs = append(errs, "ratelimit.burst must be positive")
	}
	return errs
}

func validateMetricsSettings(settings *Settings) []string {
	m := &settings.Metrics
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		return []string{fmt.Sprintf("metrics.path %q must start with /", m.Path)}
	}
	return nil
}

func validateSentrySettings(settings *Settings) []string {
	s := &settings.Sentry
	var errs []string
	if s.Enabled && s.DSN == "" {
		errs = append(errs, "sentry.dsn is required when sentry is enabled")
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		errs = append(errs, "sentry.samplerate must be between 0 and 1")
	}
	return errs
}

func validateLoggingSettings(settings *Settings) []string {
	l := &settings.Logging
	var errs []string
	check := func(key, level string) {
		if level != "" && !logger.IsValidLevel(level) {
			errs = append(errs, fmt.Sprintf("%s %q is not a valid log level", key, level))
		}
	}
	check("logging.defaultlevel", l.DefaultLevel)
	check("logging.console.level", l.Console.Level)
	check("logging.fileoutput.level", l.FileOutput.Level)
	for module, level := range l.ModuleLevels {
		check("logging.modulelevels."+module, level)
	}
	return errs
}
