package metrics

import "github.com/prometheus/client_golang/prometheus"

// Image search metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_searches_total",
			Help:      "Image similarity searches by outcome",
		},
		[]string{"outcome"}, // ok / empty / encoding_failed / catalog_failed
	)

	SearchBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_search_batches_total",
			Help:      "Comparison batches by outcome",
		},
		[]string{"outcome"}, // ok / failed
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_search_candidates",
			Help:      "Candidate items compared per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the image search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal, SearchBatchesTotal, SearchCandidates)
	searchMetricsRegistered = true
}
