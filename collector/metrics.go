package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the RPC activity of one Client.
type Metrics struct {
	rpcCalls     *prometheus.CounterVec
	rpcRetries   prometheus.Counter
	rpcDuration  *prometheus.HistogramVec
	ticksFetched prometheus.Histogram
}

// NewMetrics registers the collector metrics on the given registerer. A nil
// registerer falls back to a throwaway registry, which keeps tests quiet.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		rpcCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickwalk",
			Subsystem: "collector",
			Name:      "rpc_calls_total",
			Help:      "Contract calls issued, by method.",
		}, []string{"method"}),
		rpcRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "tickwalk",
			Subsystem: "collector",
			Name:      "rpc_retries_total",
			Help:      "Contract calls retried after a transient failure.",
		}),
		rpcDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tickwalk",
			Subsystem: "collector",
			Name:      "rpc_duration_seconds",
			Help:      "Contract call latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ticksFetched: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "tickwalk",
			Subsystem: "collector",
			Name:      "window_ticks_fetched",
			Help:      "Initialized ticks fetched per bitmap window scan.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}
