// Package metrics is a small backend-agnostic layer for operational
// metrics. It mirrors the storage abstraction: the rest of the service
// records through package-level helpers, concrete systems live in
// subpackages, and the default backend is a no-op so instrumentation is
// always safe to call.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system must implement.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration/size style sample.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend buffers.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRun records one audit run: outcome counter plus wall-clock
// duration. status is "ok", "read_error", or "rejected".
func RecordRun(status string, d time.Duration) {
	lbls := Labels{"status": status}
	backend.IncCounter("audit_runs_total", 1, lbls)
	backend.ObserveHistogram("audit_run_duration_seconds", d.Seconds(), lbls)
}

// RecordIssues increments the per-kind finding counter.
func RecordIssues(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("audit_issues_total", float64(delta), Labels{"kind": kind})
}

// RecordRows counts data rows that went through the engine.
func RecordRows(delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("audit_rows_total", float64(delta), nil)
}
