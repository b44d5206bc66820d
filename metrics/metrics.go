package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_search_requests_total",
			Help: "Total number of search requests executed",
		},
		[]string{"marketplace", "status", "cache"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopscout_search_duration_seconds",
			Help:    "Duration of search requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"marketplace"},
	)

	ProductsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_products_extracted_total",
			Help: "Total product records extracted from search pages",
		},
		[]string{"marketplace"},
	)

	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_candidates_skipped_total",
			Help: "Result elements dropped for missing a mandatory field",
		},
		[]string{"marketplace"},
	)

	EngineWinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_engine_wins_total",
			Help: "Fetch engine race wins by engine and marketplace",
		},
		[]string{"engine", "marketplace"},
	)

	WatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_watch_runs_total",
			Help: "Scheduled watch executions by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordSearch updates the request metrics for one completed search.
func RecordSearch(marketplace string, statusCode int, cacheStatus string, dur time.Duration, extracted, skipped int) {
	status := strconv.Itoa(statusCode)
	if statusCode == 0 {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(marketplace, status, cacheStatus).Inc()
	SearchDuration.WithLabelValues(marketplace).Observe(dur.Seconds())
	ProductsExtracted.WithLabelValues(marketplace).Add(float64(extracted))
	CandidatesSkipped.WithLabelValues(marketplace).Add(float64(skipped))
}
