// Package metrics provides the centralized Prometheus metrics registry for
// the matchup engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "predictions_total",
		Help:      "Total number of matchup predictions, by outcome",
	}, []string{"outcome"})
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "cache_requests_total",
		Help:      "Matchup cache lookups by tier and result",
	}, []string{"tier", "result"})
	WinrateFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "winrate_fallbacks_total",
		Help:      "Historical winrate lookups that fell back to raw aggregation, by dimension",
	}, []string{"dimension"})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "provider_requests_total",
		Help:      "Requests to the live stats provider, by endpoint and status",
	}, []string{"endpoint", "status"})
	ProviderRateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "provider_rate_limited_total",
		Help:      "Total number of provider requests delayed or retried due to rate limits",
	})
	CachePrunedRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      "cache_pruned_rows_total",
		Help:      "Total number of expired cache rows physically removed",
	})
)

// Gauge metrics
var (
	LastPruneTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "matchpoint",
		Name:      "last_cache_prune_timestamp_seconds",
		Help:      "Unix timestamp of the last successful cache prune",
	})
	MemoryCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "matchpoint",
		Name:      "memory_cache_entries",
		Help:      "Number of entries currently held in the in-process cache tier",
	})
)

// Histogram metrics
var (
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "matchpoint",
		Name:      "prediction_duration_seconds",
		Help:      "End-to-end duration of matchup predictions in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "matchpoint",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of live stats provider requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	WinrateQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "matchpoint",
		Name:      "winrate_query_duration_seconds",
		Help:      "Duration of historical winrate queries in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"dimension"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(CacheRequestsTotal)
		registry.MustRegister(WinrateFallbacksTotal)
		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(ProviderRateLimitedTotal)
		registry.MustRegister(CachePrunedRowsTotal)

		// Register gauge metrics
		registry.MustRegister(LastPruneTimestamp)
		registry.MustRegister(MemoryCacheEntries)

		// Register histogram metrics
		registry.MustRegister(PredictionDuration)
		registry.MustRegister(ProviderRequestDuration)
		registry.MustRegister(WinrateQueryDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed prediction and its duration.
func RecordPrediction(outcome string, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	PredictionDuration.Observe(durationSeconds)
}

// RecordCacheHit records a cache hit on the given tier.
func RecordCacheHit(tier string) {
	CacheRequestsTotal.WithLabelValues(tier, "hit").Inc()
}

// RecordCacheMiss records a cache miss on the given tier.
func RecordCacheMiss(tier string) {
	CacheRequestsTotal.WithLabelValues(tier, "miss").Inc()
}

// RecordProviderRequest records a live provider call.
func RecordProviderRequest(endpoint, status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordCachePrune records the result of a cache pruning run.
func RecordCachePrune(rowsRemoved int64, at float64) {
	CachePrunedRowsTotal.Add(float64(rowsRemoved))
	LastPruneTimestamp.Set(at)
}
