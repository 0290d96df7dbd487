// Package metrics provides Prometheus instrumentation for stepflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for stepflow components.
type Registry struct {
	// Engine metrics
	EntriesScheduled *prometheus.CounterVec
	EntriesFired     *prometheus.CounterVec
	EntriesRetired   *prometheus.CounterVec
	EntriesCancelled *prometheus.CounterVec
	ResyncMoves      *prometheus.CounterVec
	LiveEntries      *prometheus.GaugeVec

	// Dispatch metrics
	DispatchFailures *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	DispatchQueued   *prometheus.GaugeVec
	DispatchDropped  *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by stepflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		EntriesScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "entries_scheduled_total",
				Help:      "Total number of entries registered",
			},
			[]string{"engine_name"},
		),

		EntriesFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "entries_fired_total",
				Help:      "Total number of occurrences dispatched",
			},
			[]string{"engine_name"},
		),

		EntriesRetired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "entries_retired_total",
				Help:      "Total number of entries retired by exhaustion or end bound",
			},
			[]string{"engine_name"},
		),

		EntriesCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "entries_cancelled_total",
				Help:      "Total number of entries removed by cancellation",
			},
			[]string{"engine_name"},
		),

		ResyncMoves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "resync_moves_total",
				Help:      "Total number of entries moved to a different step by a resync sweep",
			},
			[]string{"engine_name"},
		),

		LiveEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stepflow",
				Subsystem: "engine",
				Name:      "live_entries",
				Help:      "Number of entries currently pending in the agenda",
			},
			[]string{"engine_name"},
		),

		DispatchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "dispatch",
				Name:      "failures_total",
				Help:      "Total number of dispatch collaborator failures",
			},
			[]string{"engine_name"},
		),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stepflow",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Time spent in the dispatch collaborator per firing",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"engine_name"},
		),

		DispatchQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stepflow",
				Subsystem: "dispatch",
				Name:      "queued",
				Help:      "Number of actions waiting in an async dispatcher queue",
			},
			[]string{"dispatcher_name"},
		),

		DispatchDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stepflow",
				Subsystem: "dispatch",
				Name:      "dropped_total",
				Help:      "Total number of actions dropped by a full async dispatcher queue",
			},
			[]string{"dispatcher_name"},
		),
	}
}
