// Package metrics provides the Prometheus collectors used by notekeeper.
package metrics

// Status label values.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusCommitted  = "committed"
	StatusRolledBack = "rolled_back"
)

// Histogram bucket configuration.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)

// Namespace prefixes every metric name.
const Namespace = "notekeeper"

// statusOf maps an error to a status label
func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
