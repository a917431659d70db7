// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// # Quick Start
//
//	cfg := &logger.LoggingConfig{
//	    DefaultLevel: "info",
//	    Timezone:     "UTC",
//	    Console:      &logger.ConsoleOutput{Enabled: true, Level: "info"},
//	}
//
//	centralLogger, err := logger.NewCentralLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer centralLogger.Close()
//
//	apiLogger := centralLogger.Module("api")
//	apiLogger.Info("Server started", logger.String("addr", ":3001"))
//
// # Module Scoping
//
// Module loggers nest, so centralLogger.Module("datastore").Module("sqlite")
// logs with module="datastore.sqlite". Per-module levels come from
// LoggingConfig.ModuleLevels and are matched on the top level module name.
//
// # Context-Aware Logging
//
// Request scoped values are carried in the context:
//
//	ctx = logger.WithRequestID(ctx, "9f1c...")
//	log.WithContext(ctx).Info("note created") // includes request_id
//
// # Testing
//
//	buf := &bytes.Buffer{}
//	testLogger := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC)
//
//	quiet := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
package logger

import (
	"context"
	"time"
	"unique"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ValidLevels lists the accepted textual log levels.
var ValidLevels = []LogLevel{LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// internKey returns an interned version of the key string so repeated keys
// share a single allocation.
func internKey(key string) string {
	return unique.Make(key).Value()
}

var (
	errorKey     = internKey("error")
	moduleKey    = internKey("module")
	requestIDKey = internKey("request_id")
)

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field for structured logging.
func String(key, value string) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int creates an integer field for structured logging.
func Int(key string, value int) Field {
	return Field{Key: internKey(key), Value: value}
}

// Int64 creates a 64-bit integer field for structured logging.
func Int64(key string, value int64) Field {
	return Field{Key: internKey(key), Value: value}
}

// Uint creates an unsigned integer field, used for database primary keys.
func Uint(key string, value uint) Field {
	return Field{Key: internKey(key), Value: uint64(value)}
}

// Bool creates a boolean field for structured logging.
func Bool(key string, value bool) Field {
	return Field{Key: internKey(key), Value: value}
}

// Error creates an error field. The key is always "error"; a nil error yields a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// Duration creates a duration field, rendered as a human readable string.
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value}
}

// Time creates a time field for structured logging.
func Time(key string, value time.Time) Field {
	return Field{Key: internKey(key), Value: value}
}

// Any creates a field with any value. Prefer the typed constructors for simple values.
func Any(key string, value any) Field {
	return Field{Key: internKey(key), Value: value}
}

type contextKey struct{ name string }

var requestIDContextKey = contextKey{"request_id"}

// WithRequestID returns a new context carrying the request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// queryScope names the repository operation a SQL statement belongs to
type queryScope struct {
	operation string
	table     string
}

var queryScopeContextKey = contextKey{"query_scope"}

// WithQueryScope returns a context that labels SQL logged by the GORM adapter
// with the repository operation and table.
func WithQueryScope(ctx context.Context, operation, table string) context.Context {
	return context.WithValue(ctx, queryScopeContextKey, queryScope{operation: operation, table: table})
}

// queryScopeFields returns the operation and table fields stored by WithQueryScope
func queryScopeFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	scope, ok := ctx.Value(queryScopeContextKey).(queryScope)
	if !ok {
		return nil
	}
	return []Field{String("operation", scope.operation), String("table", scope.table)}
}
