// Package metrics provides a small, backend-agnostic hook for recording
// operational metrics from the pipeline. The global backend defaults to a
// no-op implementation, so stages can always record without configuration;
// the calling orchestrator owns the actual reporting layer and may install a
// concrete backend at startup.
package metrics

import (
	"time"

	"txetl/internal/etlerr"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b != nil {
		backend = b
	}
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStage measures one pipeline stage: a completion counter labeled with
// the outcome class, and the stage duration.
func RecordStage(run, stage string, err error, d time.Duration) {
	lbls := Labels{
		"run":    run,
		"stage":  stage,
		"status": etlerr.Code(err),
	}
	backend.IncCounter("pipeline_stage_total", 1, lbls)
	backend.ObserveHistogram("pipeline_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows counts rows by kind for a run. Typical kinds: "extracted",
// "processed", "duplicates", "dropped", "loaded".
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("pipeline_rows_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}
