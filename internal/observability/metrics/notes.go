package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotesMetrics counts note operations by outcome and committed audit entries
type NotesMetrics struct {
	noteOperationsTotal *prometheus.CounterVec
	auditEntriesTotal   *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewNotesMetrics creates and registers new notes metrics
func NewNotesMetrics(registry prometheus.Registerer) (*NotesMetrics, error) {
	m := &NotesMetrics{
		noteOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "note_operations_total",
				Help:      "Total number of note operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		auditEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "audit_entries_total",
				Help:      "Total number of committed audit entries",
			},
			[]string{"action"},
		),
	}
	m.collectors = []prometheus.Collector{m.noteOperationsTotal, m.auditEntriesTotal}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *NotesMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *NotesMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordNoteOperation records the outcome of a note operation
func (m *NotesMetrics) RecordNoteOperation(operation, outcome string) {
	m.noteOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordAuditEntry records an audit entry that was committed
func (m *NotesMetrics) RecordAuditEntry(action string) {
	m.auditEntriesTotal.WithLabelValues(action).Inc()
}
