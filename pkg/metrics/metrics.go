// Package metrics exposes prometheus instruments for the transpiler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded in the status label.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusInitError = "init_error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	builds       prometheus.Counter
	bundles      prometheus.Counter
	resets       prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsproc_engine_calls_total",
				Help: "Engine invocations by function and outcome",
			},
			[]string{"function", "status"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsproc_engine_call_duration_seconds",
				Help:    "Time spent inside the engine, including lock wait",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"function"},
		),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsproc_engine_context_builds_total",
			Help: "Engine contexts constructed",
		}),
		bundles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsproc_program_bundles_total",
			Help: "Transformation program bundles produced",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsproc_engine_resets_total",
			Help: "Explicit engine resets",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.callDuration, m.builds, m.bundles, m.resets)
	}
	return m
}

// ObserveCall records one gateway call.
func (m *Metrics) ObserveCall(function, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(function, status).Inc()
	m.callDuration.WithLabelValues(function).Observe(d.Seconds())
}

// ContextBuilt records a new engine context.
func (m *Metrics) ContextBuilt() {
	if m == nil {
		return
	}
	m.builds.Inc()
}

// ProgramBundled records a fresh program bundle.
func (m *Metrics) ProgramBundled() {
	if m == nil {
		return
	}
	m.bundles.Inc()
}

// EngineReset records an explicit reset.
func (m *Metrics) EngineReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// Builds returns the context build counter.
func (m *Metrics) Builds() prometheus.Counter {
	return m.builds
}

// Resets returns the reset counter.
func (m *Metrics) Resets() prometheus.Counter {
	return m.resets
}

// Calls returns the call counter for one function and status.
func (m *Metrics) Calls(function, status string) prometheus.Counter {
	return m.calls.WithLabelValues(function, status)
}
