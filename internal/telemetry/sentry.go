// Package telemetry initialises Sentry and connects it to the errors package,
// so database and internal failures built through errors.New are reported.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
)

// DefaultFlushTimeout bounds how long shutdown waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

// Init configures Sentry from settings. When telemetry is disabled the
// errors package gets a disabled reporter and nothing leaves the process.
func Init(settings *conf.SentrySettings, log logger.Logger, release string) error {
	return initSentry(settings, log, release, nil)
}

func initSentry(settings *conf.SentrySettings, log logger.Logger, release string, transport sentry.Transport) error {
	if settings == nil || !settings.Enabled {
		errors.SetTelemetryReporter(errors.NewSentryReporter(false))
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		SampleRate:       settings.SampleRate,
		Release:          release,
		AttachStacktrace: false,
		ServerName:       "", // Explicitly clear server name to prevent hostname leakage
		BeforeSend:       beforeSend,
		Transport:        transport,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))

	if log != nil {
		log.Info("Sentry telemetry initialized",
			logger.String("environment", settings.Environment),
			logger.Any("sample_rate", settings.SampleRate))
	}
	return nil
}

// beforeSend strips host and user details from every event
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	return applyPrivacyFilters(event)
}

// applyPrivacyFilters applies privacy filters to a Sentry event
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	// Clear user data and server name
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	if event.Request != nil {
		event.Request.Cookies = ""
		event.Request.Headers = nil
	}

	return event
}

// Flush ensures all buffered events are sent to Sentry.
func Flush(timeout time.Duration) {
	if reporter := errors.GetTelemetryReporter(); reporter == nil || !reporter.IsEnabled() {
		return
	}
	sentry.Flush(timeout)
}
