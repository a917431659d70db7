package repository

import "time"

// Observer receives the outcome of every repository call. The observability
// package implements it with Prometheus counters and histograms.
type Observer interface {
	ObserveOperation(operation, table string, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, error, time.Duration) {}

// observerOrNop never returns nil
func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
