package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	operationsTotal     *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	transactionsTotal   *prometheus.CounterVec
	transactionDuration prometheus.Histogram

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry prometheus.Registerer) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *DatastoreMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "datastore_operations_total",
			Help:      "Total number of repository operations",
		},
		[]string{"operation", "table", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "datastore_operation_duration_seconds",
			Help:      "Time taken for repository operations",
			Buckets:   prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15),
		},
		[]string{"operation", "table"},
	)

	m.transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "datastore_transactions_total",
			Help:      "Total number of database transactions",
		},
		[]string{"status"}, // status: committed, rolled_back
	)

	m.transactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "datastore_transaction_duration_seconds",
		Help:      "Time taken for database transactions",
		Buckets:   prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
	})

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.transactionsTotal,
		m.transactionDuration,
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// ObserveOperation records one repository call
func (m *DatastoreMetrics) ObserveOperation(operation, table string, err error, elapsed time.Duration) {
	m.operationsTotal.WithLabelValues(operation, table, statusOf(err)).Inc()
	m.operationDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// ObserveTransaction records a finished transaction
func (m *DatastoreMetrics) ObserveTransaction(err error, elapsed time.Duration) {
	status := StatusCommitted
	if err != nil {
		status = StatusRolledBack
	}
	m.transactionsTotal.WithLabelValues(status).Inc()
	m.transactionDuration.Observe(elapsed.Seconds())
}
