package arb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks evaluation activity for one evaluator instance.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	opportunities *prometheus.CounterVec
	excludedPools prometheus.Counter
	evalDuration  *prometheus.HistogramVec
	ticksCrossed  prometheus.Histogram
}

// NewMetrics registers the evaluator metrics on the given registerer. A nil
// registerer falls back to a throwaway registry, which keeps tests quiet.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		evaluations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickwalk",
			Subsystem: "arb",
			Name:      "evaluations_total",
			Help:      "Evaluation runs, by mode.",
		}, []string{"mode"}),
		opportunities: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickwalk",
			Subsystem: "arb",
			Name:      "opportunities_total",
			Help:      "Evaluated pool pairs, by mode and executability verdict.",
		}, []string{"mode", "executable"}),
		excludedPools: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "tickwalk",
			Subsystem: "arb",
			Name:      "excluded_pools_total",
			Help:      "Snapshots rejected by validation before evaluation.",
		}),
		evalDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tickwalk",
			Subsystem: "arb",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one evaluation run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		ticksCrossed: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "tickwalk",
			Subsystem: "arb",
			Name:      "route_ticks_crossed",
			Help:      "Total ticks crossed per simulated route.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
