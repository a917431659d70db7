// Package observability owns the Prometheus registry and exposes the
// collectors and handlers the rest of notekeeper records into.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/tphakala/notekeeper/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Datastore *metrics.DatastoreMetrics
	Notes     *metrics.NotesMetrics
	HTTP      middleware.Middleware
}

// NewMetrics creates a new instance of Metrics on a private registry.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore metrics: %w", err)
	}

	notesMetrics, err := metrics.NewNotesMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Notes metrics: %w", err)
	}

	httpMiddleware := middleware.New(middleware.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{
			Prefix:   metrics.Namespace,
			Registry: registry,
		}),
	})

	return &Metrics{
		registry:  registry,
		Datastore: datastoreMetrics,
		Notes:     notesMetrics,
		HTTP:      httpMiddleware,
	}, nil
}

// TrackRateLimitKeys exposes count, the number of keys the rate limiter holds
// buckets for, as a gauge read on every scrape.
func (m *Metrics) TrackRateLimitKeys(count func() int) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "ratelimit",
		Name:      "tracked_keys",
		Help:      "Number of identities and addresses with a rate limit bucket",
	}, func() float64 { return float64(count()) })
	if err := m.registry.Register(gauge); err != nil {
		return fmt.Errorf("failed to register rate limit gauge: %w", err)
	}
	return nil
}

// Registry returns the registry all collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
