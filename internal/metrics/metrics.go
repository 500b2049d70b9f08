// Package metrics exposes Prometheus counters and histograms describing
// BatchRunner progress, mirroring the registration style of the teacher's
// own metrics package (package-level vars registered in init, scraped
// through promhttp.Handler).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locate_batches_total",
		Help: "Total (batch, variant) pairs processed, by output tag",
	}, []string{"tag"})
	BatchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locate_batch_duration_ms",
		Help:    "Wall-clock duration of one (batch, variant) task",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 20000},
	})
	LandmarksSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_landmarks_skipped_total",
		Help: "Landmarks skipped for lack of a known position or a matching calibration",
	})
	SolverGeosCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_solver_geos_calls_total",
		Help: "Number of exact polygon intersection calls made by the solver",
	})
	SolverCapRejectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_solver_cap_rejects_total",
		Help: "Number of candidate extensions rejected by the s2-cap fast path",
	})
	ResultCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_result_cache_hits_total",
		Help: "Total ResultCache hits",
	})
	ResultCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_result_cache_misses_total",
		Help: "Total ResultCache misses",
	})
	LedgerSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locate_ledger_skipped_total",
		Help: "Total (batch, variant) pairs skipped because the run ledger already has them",
	})
)

func init() {
	prometheus.MustRegister(
		BatchesTotal,
		BatchDurationMs,
		LandmarksSkippedTotal,
		SolverGeosCallsTotal,
		SolverCapRejectsTotal,
		ResultCacheHitsTotal,
		ResultCacheMissesTotal,
		LedgerSkippedTotal,
	)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }
