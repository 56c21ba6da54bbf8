// Package metrics exposes request and circulation counters.
package metrics

import "time"

// Recorder defines observability hooks for the API. All methods are safe
// to call on a NoopRecorder when metrics are disabled.
type Recorder interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
	IncLoan(action, result string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHTTP(string, string, int, time.Duration) {}
func (NoopRecorder) IncLoan(string, string)                         {}
