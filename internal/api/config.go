// Package api provides the HTTP server for notekeeper: the echo instance,
// the middleware stack, the note and audit routes and the error envelope.
package api

import (
	"fmt"
	"time"

	"github.com/tphakala/notekeeper/internal/conf"
)

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultBodyLimit caps request bodies. A note at the length limits is at
	// most about 120 KB even when every character is sent as a JSON surrogate
	// pair escape.
	DefaultBodyLimit = "1M"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr string // host:port to listen on

	// CORS
	CORSEnabled    bool
	AllowedOrigins []string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BodyLimit string // maximum request body size, e.g. "1M"

	// Metrics endpoint
	MetricsEnabled bool
	MetricsPath    string

	// Rate limiting
	RateLimitEnabled bool

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":3001",
		CORSEnabled:      true,
		AllowedOrigins:   []string{"*"},
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
		BodyLimit:        DefaultBodyLimit,
		MetricsEnabled:   true,
		MetricsPath:      DefaultMetricsPath,
		RateLimitEnabled: true,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings == nil {
		return cfg
	}

	cfg.Addr = settings.Server.Addr()
	cfg.CORSEnabled = settings.Server.CORS.Enabled
	if len(settings.Server.CORS.AllowOrigins) > 0 {
		cfg.AllowedOrigins = settings.Server.CORS.AllowOrigins
	}
	if settings.Server.ReadTimeout > 0 {
		cfg.ReadTimeout = settings.Server.ReadTimeout
	}
	if settings.Server.WriteTimeout > 0 {
		cfg.WriteTimeout = settings.Server.WriteTimeout
	}
	if settings.Server.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = settings.Server.ShutdownTimeout
	}

	cfg.MetricsEnabled = settings.Metrics.Enabled
	if settings.Metrics.Path != "" {
		cfg.MetricsPath = settings.Metrics.Path
	}
	cfg.RateLimitEnabled = settings.RateLimit.Enabled
	cfg.Debug = settings.Debug

	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.MetricsEnabled && (c.MetricsPath == "" || c.MetricsPath[0] != '/') {
		return fmt.Errorf("metrics path must start with /")
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: address=%s, cors=%v, metrics=%v, ratelimit=%v, debug=%v",
		c.Addr, c.CORSEnabled, c.MetricsEnabled, c.RateLimitEnabled, c.Debug)
}
