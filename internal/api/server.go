package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echolog "github.com/labstack/gommon/log"
	httpmetricsecho "github.com/slok/go-http-metrics/middleware/echo"

	mw "github.com/tphakala/notekeeper/internal/api/middleware"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/logger"
	"github.com/tphakala/notekeeper/internal/notes"
	"github.com/tphakala/notekeeper/internal/observability"
	"github.com/tphakala/notekeeper/internal/ratelimit"
)

// Server is the HTTP server for notekeeper.
// It owns the Echo instance, the middleware stack and the routes.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	store   *datastore.Store
	service *notes.Service
	metrics *observability.Metrics
	limiter *ratelimit.Limiter

	controller *Controller
	startTime  time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithStore sets the datastore used by the health check.
func WithStore(store *datastore.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithService sets the notes service behind the routes.
func WithService(service *notes.Service) ServerOption {
	return func(s *Server) {
		s.service = service
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLimiter sets the per identity rate limiter.
func WithLimiter(l *ratelimit.Limiter) ServerOption {
	return func(s *Server) {
		s.limiter = l
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		return nil, fmt.Errorf("notes service is required")
	}
	if s.log == nil {
		s.log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.Logger = logger.NewEchoAdapter(s.log.Module("echo"))
	s.echo.HTTPErrorHandler = NewHTTPErrorHandler(s.log)

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Addr),
		logger.Bool("metrics", s.metricsEnabled()),
		logger.Bool("rate_limit", s.rateLimitEnabled()),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// metricsEnabled reports whether metrics are collected and served
func (s *Server) metricsEnabled() bool {
	return s.config.MetricsEnabled && s.metrics != nil
}

// rateLimitEnabled reports whether requests are rate limited
func (s *Server) rateLimitEnabled() bool {
	return s.config.RateLimitEnabled && s.limiter != nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{LogLevel: echolog.ERROR}))

	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, s.skipInfrastructure))

	if s.config.CORSEnabled {
		s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))
	}

	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))

	if s.metricsEnabled() {
		s.echo.Use(httpmetricsecho.Handler("", s.metrics.HTTP))
	}

	s.echo.Use(mw.NewIdentity())

	if s.rateLimitEnabled() {
		s.echo.Use(mw.NewRateLimit(s.limiter, s.skipInfrastructure))
	}
}

// skipInfrastructure skips health and metrics requests
func (s *Server) skipInfrastructure(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/" {
		return true
	}
	return s.metricsEnabled() && path == s.config.MetricsPath
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.controller = NewController(s.service, s.store, s.log)
	s.controller.RegisterRoutes(s.echo)

	if s.metricsEnabled() {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start begins serving HTTP requests in a background goroutine.
// Use Shutdown() to stop the server.
func (s *Server) Start() {
	go func() {
		if err := s.startBlocking(); err != nil {
			s.log.Error("Server error", logger.Error(err))
		}
	}()
}

// startBlocking begins serving HTTP requests and blocks until the server is shut down.
func (s *Server) startBlocking() error {
	s.log.Info("Starting HTTP server", logger.String("address", s.config.Addr))

	if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown starts the server and shuts it down when ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.startBlocking()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutdown signal received, initiating graceful shutdown")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("Server shutdown complete", logger.Duration("uptime", time.Since(s.startTime)))
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}
