// Package app wires the notekeeper components together for the CLI commands:
// logging, telemetry, metrics, the database and the notes service.
package app

import (
	"context"
	"fmt"

	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
	"github.com/tphakala/notekeeper/internal/notes"
	"github.com/tphakala/notekeeper/internal/observability"
	"github.com/tphakala/notekeeper/internal/ratelimit"
	"github.com/tphakala/notekeeper/internal/telemetry"
)

// App holds the components shared by the commands.
type App struct {
	Settings *conf.Settings
	Logger   *logger.CentralLogger
	Log      logger.Logger
	Metrics  *observability.Metrics
	Manager  datastore.Manager
	Store    *datastore.Store
	Service  *notes.Service
	Limiter  *ratelimit.Limiter
}

// Option configures Open.
type Option func(*options)

type options struct {
	release   string
	telemetry bool
	metrics   bool
	migrate   bool
}

// WithRelease sets the release reported to telemetry.
func WithRelease(release string) Option {
	return func(o *options) { o.release = release }
}

// WithTelemetry initialises Sentry when the settings enable it.
func WithTelemetry() Option {
	return func(o *options) { o.telemetry = true }
}

// WithMetrics creates the Prometheus registry and instruments the store and service.
func WithMetrics() Option {
	return func(o *options) { o.metrics = true }
}

// WithoutMigrations skips schema migrations on open.
func WithoutMigrations() Option {
	return func(o *options) { o.migrate = false }
}

// Open builds the logger, opens and migrates the database and creates the
// notes service. Close releases everything Open acquired.
func Open(ctx context.Context, settings *conf.Settings, opts ...Option) (*App, error) {
	o := options{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}

	central, err := logger.NewCentralLogger(settings.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &App{
		Settings: settings,
		Logger:   central,
		Log:      central.Module("app"),
	}

	if o.telemetry {
		if err := telemetry.Init(&settings.Sentry, central.Module("telemetry"), o.release); err != nil {
			// telemetry is optional, keep going without it
			a.Log.Warn("telemetry disabled", logger.Error(err))
		}
	}

	if o.metrics && settings.Metrics.Enabled {
		if a.Metrics, err = observability.NewMetrics(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if a.Manager, err = datastore.New(&settings.Database, central.Module("datastore")); err != nil {
		a.Close()
		return nil, errors.New(fmt.Errorf("failed to open database: %w", err)).
			Component("app").
			Category(errors.CategoryDatabase).
			Context("type", settings.Database.Type).
			Build()
	}
	a.Log.Info("database opened",
		logger.String("type", a.Manager.Dialect()),
		logger.String("path", a.Manager.Path()))

	if o.migrate {
		if err := a.Manager.Initialize(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var storeOpts []datastore.StoreOption
	serviceOpts := []notes.Option{notes.WithLogger(central.Module("notes"))}
	if a.Metrics != nil {
		storeOpts = append(storeOpts, datastore.WithMetrics(a.Metrics.Datastore))
		serviceOpts = append(serviceOpts, notes.WithMetrics(a.Metrics.Notes))
	}
	a.Store = datastore.NewStore(a.Manager.DB(), storeOpts...)
	a.Service = notes.NewService(a.Store, settings.Audit, serviceOpts...)

	if settings.RateLimit.Enabled {
		a.Limiter = ratelimit.New(ratelimit.Config{
			RequestsPerSecond: settings.RateLimit.RequestsPerSecond,
			Burst:             settings.RateLimit.Burst,
			IdleTTL:           settings.RateLimit.IdleTTL,
		})
		if a.Metrics != nil {
			if err := a.Metrics.TrackRateLimitKeys(a.Limiter.Len); err != nil {
				a.Log.Warn("rate limit gauge unavailable", logger.Error(err))
			}
		}
	}

	return a, nil
}

// Close releases the database, flushes telemetry and closes log files.
func (a *App) Close() {
	if a.Manager != nil {
		if err := a.Manager.Close(); err != nil {
			a.Log.Warn("failed to close database", logger.Error(err))
		}
	}
	telemetry.Flush(telemetry.DefaultFlushTimeout)
	if a.Logger != nil {
		_ = a.Logger.Flush()
		_ = a.Logger.Close()
	}
}
