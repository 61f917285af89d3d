// Package observability holds the prometheus instrumentation for the engine.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shptiles_cache_results_total",
			Help: "Cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cachePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shptiles_cache_promotions_total",
			Help: "File-tier hits promoted into the memory tier.",
		},
	)

	cacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shptiles_cache_write_failures_total",
			Help: "Cache writes that failed, by tier.",
		},
		[]string{"tier"},
	)

	extractDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shptiles_extract_duration_seconds",
			Help:    "Duration of per-chunk feature extraction.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
	)

	extractFeatures = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shptiles_extract_features",
			Help:    "Features included per extraction.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		},
	)

	chunkingDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shptiles_chunking_duration_seconds",
			Help:    "Duration of chunk-grid computation per layer.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shptiles_invalidations_total",
			Help: "Layer cache invalidations by source and result.",
		},
		[]string{"source", "result"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shptiles_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

func IncCachePromotion() {
	cachePromotions.Inc()
}

func IncCacheWriteFailure(tier string) {
	cacheWriteFailures.WithLabelValues(tier).Inc()
}

func ObserveExtraction(durationSeconds float64, included int) {
	extractDurationSeconds.Observe(durationSeconds)
	extractFeatures.Observe(float64(included))
}

func ObserveChunking(durationSeconds float64) {
	chunkingDurationSeconds.Observe(durationSeconds)
}

func IncInvalidation(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	invalidationsTotal.WithLabelValues(source, result).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
