// Package metrics exposes the control plane's Prometheus instrumentation:
// tick duration, rows reclaimed/admitted, probe outcomes, and arbiter
// decisions. Grounded in the teacher's internal/database/postgres
// metrics.go + prometheus.go (a PoolMetrics struct bridged to
// Prometheus gauges/counters/histograms), re-themed from connection-pool
// statistics to tick-level control-plane statistics since this
// service has no long-lived pool of its own workers to report on.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric one reclaimerd process exposes. Callers
// register it once against a prometheus.Registerer (or the default
// registry) at startup.
type Registry struct {
	TickDuration   prometheus.Histogram
	TickTotal      *prometheus.CounterVec
	RowsReclaimed  prometheus.Counter
	RowsStale      prometheus.Counter
	RowsInFlight   prometheus.Gauge
	RowsAdmitted   prometheus.Counter
	ProbeOutcome   *prometheus.CounterVec
	ArbiterDecision *prometheus.CounterVec
}

// NewRegistry constructs a Registry with every metric initialized but
// not yet registered.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one control-plane tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		TickTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of ticks run, labeled by outcome.",
		}, []string{"outcome"}),
		RowsReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_reclaimed_total",
			Help:      "Stale rows successfully converted back to PENDING.",
		}),
		RowsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_stale_total",
			Help:      "In-process rows classified as stale.",
		}),
		RowsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_in_flight",
			Help:      "IN_PROCESS rows observed on the most recent tick.",
		}),
		RowsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_admitted_total",
			Help:      "PENDING rows returned by the admission filter.",
		}),
		ProbeOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_outcome_total",
			Help:      "Health probe results, labeled by system and outcome.",
		}, []string{"system", "outcome"}),
		ArbiterDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arbiter_decisions_total",
			Help:      "Capability arbiter decisions, labeled by capability tier.",
		}, []string{"tier"}),
	}
}

// MustRegister registers every metric in r against reg, panicking on
// a duplicate-registration error the way prometheus's own
// MustRegister does — called once at process startup, where a
// registration conflict is a programmer error worth failing fast on.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.TickDuration,
		r.TickTotal,
		r.RowsReclaimed,
		r.RowsStale,
		r.RowsInFlight,
		r.RowsAdmitted,
		r.ProbeOutcome,
		r.ArbiterDecision,
	)
}
