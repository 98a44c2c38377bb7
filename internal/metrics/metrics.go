// Package metrics defines the Prometheus instruments shared across the
// service. All metrics are registered via promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result cache metrics
var (
	// CacheHits tracks cache hits by tier (primary/fallback)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Result cache hits by tier",
		},
		[]string{"tier"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Result cache misses across both tiers",
		},
	)

	// CacheFallbackOps tracks operations served by the in-process fallback tier
	CacheFallbackOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_fallback_operations_total",
			Help: "Operations served by the fallback tier while the primary is down",
		},
		[]string{"operation"},
	)

	// CachePrimaryErrors tracks primary tier failures (timeouts and connection errors)
	CachePrimaryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "result_cache_primary_errors_total",
			Help: "Primary cache tier failures",
		},
	)

	// CacheBreakerState tracks the primary-tier circuit breaker state (0=closed, 1=half-open, 2=open)
	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "result_cache_breaker_state",
			Help: "Primary cache circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Redis client metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)
)

// Rate limiter metrics
var (
	// RateLimitRejections tracks rejected requests by endpoint
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, by endpoint",
		},
		[]string{"endpoint"},
	)

	// RateLimitWindows tracks the number of live counter windows
	RateLimitWindows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limit_windows_current",
			Help: "Live fixed-window counters tracked by the rate limiter",
		},
	)
)

// Analysis pipeline metrics
var (
	// AnalyzeRequests tracks analyze calls by outcome (hit/miss/error)
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyze_requests_total",
			Help: "Analyze requests by cache outcome",
		},
		[]string{"outcome"},
	)

	// ClassifyDuration tracks classification model latency in seconds
	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classify_duration_seconds",
			Help:    "Classification model call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Storage metrics
var (
	// DBQueryDuration tracks database operation latency in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// DBErrors tracks database failures by operation
	DBErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Database failures by operation",
		},
		[]string{"operation"},
	)
)
