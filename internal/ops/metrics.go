package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	Toggles            *prometheus.CounterVec
	TogglesRejected    *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	FlushBatches       prometheus.Counter
	FlushRequeued      prometheus.Counter
	FlushedDeltas      prometheus.Counter
	FlushDuration      prometheus.Histogram
	ReconcileRuns      *prometheus.CounterVec
	ReconcileCorrected prometheus.Counter
	CacheMisses        prometheus.Counter
}

// NewMetrics creates engine metrics on a fresh registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates engine metrics on the given registry
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "likewise_toggles_total",
			Help: "Accepted reaction toggles by resource type and direction.",
		}, []string{"resource_type", "direction"}),

		TogglesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "likewise_toggles_rejected_total",
			Help: "Rejected toggle attempts by reason.",
		}, []string{"reason"}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "likewise_pending_queue_depth",
			Help: "Deltas waiting in the pending write queue.",
		}),

		FlushBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "likewise_flush_batches_total",
			Help: "Completed flush attempts that drained at least one delta.",
		}),

		FlushRequeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "likewise_flush_requeued_deltas_total",
			Help: "Deltas re-queued after a failed batch partition.",
		}),

		FlushedDeltas: factory.NewCounter(prometheus.CounterOpts{
			Name: "likewise_flushed_deltas_total",
			Help: "Deltas durably persisted by the batch persister.",
		}),

		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "likewise_flush_duration_seconds",
			Help:    "Wall time of flush attempts.",
			Buckets: prometheus.DefBuckets,
		}),

		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "likewise_reconcile_runs_total",
			Help: "Reconciliation runs by scope (recent or full).",
		}, []string{"scope"}),

		ReconcileCorrected: factory.NewCounter(prometheus.CounterOpts{
			Name: "likewise_reconcile_corrected_total",
			Help: "Denormalized counters corrected by reconciliation.",
		}),

		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "likewise_cache_misses_total",
			Help: "State reads that fell through to the store.",
		}),
	}
}

// Registry returns the underlying registry for the ops endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
