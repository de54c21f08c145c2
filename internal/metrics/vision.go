package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "lostfound"

// Vision comparator metrics.
var (
	VisionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_requests_total",
			Help:      "Total number of vision comparison requests",
		},
		[]string{"model", "status"},
	)

	VisionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vision_request_duration_seconds",
			Help:      "Vision comparison request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model"},
	)

	VisionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_tokens_total",
			Help:      "Total vision tokens consumed",
		},
		[]string{"model", "type"},
	)

	VisionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_errors_total",
			Help:      "Total vision comparison errors",
		},
		[]string{"model", "error_type"},
	)

	VisionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vision_budget_tokens_remaining",
			Help:      "Remaining vision token budget",
		},
		[]string{"period"},
	)

	VisionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_cache_total",
			Help:      "Comparison score cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var visionMetricsRegistered bool

// RegisterVisionMetrics registers the vision metrics. Must be called once from main.
func RegisterVisionMetrics() {
	if visionMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		VisionRequestsTotal,
		VisionRequestDuration,
		VisionTokensTotal,
		VisionErrorsTotal,
		VisionBudgetTokensRemaining,
		VisionCacheTotal,
	)
	visionMetricsRegistered = true
}
