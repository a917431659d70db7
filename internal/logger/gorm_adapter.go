package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// GormLoggerAdapter sends GORM output to a module logger. Statements are
// logged at TRACE, failures and slow statements at WARN. Each line carries
// the request id and the repository operation and table when the context
// has them.
//
//	gorm.Open(dialector, &gorm.Config{
//	    Logger: logger.NewGormLoggerAdapter(log.Module("datastore"), 200*time.Millisecond),
//	})
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
}

// NewGormLoggerAdapter creates the adapter. A zero slowThreshold turns slow
// statement warnings off.
func NewGormLoggerAdapter(log Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if log == nil {
		log = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{logger: log, slowThreshold: slowThreshold}
}

// LogMode is a no-op; the module level decides what is written.
func (a *GormLoggerAdapter) LogMode(_ gorm_logger.LogLevel) gorm_logger.Interface {
	return a
}

// scoped returns the logger for ctx with the query scope attached
func (a *GormLoggerAdapter) scoped(ctx context.Context) Logger {
	log := a.logger.WithContext(ctx)
	if fields := queryScopeFields(ctx); fields != nil {
		log = log.With(fields...)
	}
	return log
}

// Info writes GORM notices at DEBUG.
func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	a.scoped(ctx).Debug(fmt.Sprintf(msg, data...))
}

// Warn writes GORM warnings at WARN.
func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	a.scoped(ctx).Warn(fmt.Sprintf(msg, data...))
}

// Error writes GORM errors at ERROR.
func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	a.scoped(ctx).Error(fmt.Sprintf(msg, data...))
}

// Trace logs one executed statement. A missing row is not a failure.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []Field{
		String("sql", sql),
		Int64("rows_affected", rows),
		Int64("duration_ms", elapsed.Milliseconds()),
	}
	log := a.scoped(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("query error", append(fields, Error(err))...)
	case a.slowThreshold > 0 && elapsed > a.slowThreshold:
		log.Warn("slow query", append(fields, Duration("threshold", a.slowThreshold))...)
	default:
		log.Trace("sql query", fields...)
	}
}
