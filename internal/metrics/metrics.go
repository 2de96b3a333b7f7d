// Package metrics exports Prometheus counters for the timer engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all engine metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	completions    *prometheus.CounterVec
	partials       prometheus.Counter
	recordFailures *prometheus.CounterVec
	restores       *prometheus.CounterVec
	reconciles     prometheus.Counter
	focusSeconds   prometheus.Counter
}

// NewRegistry creates and registers the engine metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "completions_total",
			Help:      "Mode completions processed, by completed mode.",
		}, []string{"mode"}),
		partials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "partial_records_total",
			Help:      "Minute-boundary partial records confirmed by the session store.",
		}),
		recordFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "record_failures_total",
			Help:      "Session store writes that failed and were dropped.",
		}, []string{"kind"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "restores_total",
			Help:      "Engine start-up restores, by outcome.",
		}, []string{"outcome"}),
		reconciles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "foreground_reconciles_total",
			Help:      "Foreground regain reconciliations while running.",
		}),
		focusSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studyfocus",
			Name:      "focus_seconds_total",
			Help:      "Focus seconds credited from Work segments.",
		}),
	}
	r.registry.MustRegister(r.completions, r.partials, r.recordFailures, r.restores, r.reconciles, r.focusSeconds)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordCompletion counts a processed zero-crossing.
func (r *Registry) RecordCompletion(mode string) {
	if r == nil {
		return
	}
	r.completions.WithLabelValues(mode).Inc()
}

// RecordPartial counts a confirmed partial record.
func (r *Registry) RecordPartial() {
	if r == nil {
		return
	}
	r.partials.Inc()
}

// RecordFailure counts a dropped session store write.
func (r *Registry) RecordFailure(kind string) {
	if r == nil {
		return
	}
	r.recordFailures.WithLabelValues(kind).Inc()
}

// RecordRestore counts a start-up restore outcome.
func (r *Registry) RecordRestore(outcome string) {
	if r == nil {
		return
	}
	r.restores.WithLabelValues(outcome).Inc()
}

// RecordReconcile counts a foreground reconciliation.
func (r *Registry) RecordReconcile() {
	if r == nil {
		return
	}
	r.reconciles.Inc()
}

// AddFocusSeconds counts credited focus time.
func (r *Registry) AddFocusSeconds(seconds int) {
	if r == nil || seconds <= 0 {
		return
	}
	r.focusSeconds.Add(float64(seconds))
}
