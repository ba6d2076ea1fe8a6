// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	BarsFetched   *prometheus.CounterVec
	BarsUpserted  *prometheus.CounterVec
	BarsFilled    *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	ProviderCalls *prometheus.CounterVec
	FetchLatency  *prometheus.HistogramVec

	// Normalization metrics
	RowsNormalized *prometheus.CounterVec

	// Engine metrics
	TasksComputed  *prometheus.CounterVec
	TasksSkipped   *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	RecordsFlushed *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	FlushDuration  prometheus.Histogram
	RunDuration    *prometheus.HistogramVec

	// API metrics
	RequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun    *prometheus.GaugeVec
	LastSuccessfulIngest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "asset_performance_lab"
	}

	return &Metrics{
		// Ingestion metrics
		BarsFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bars_fetched_total",
			Help:      "Total number of daily bars fetched from the provider",
		}, []string{"class"}),
		BarsUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bars_upserted_total",
			Help:      "Total number of daily bars upserted into storage",
		}, []string{"class"}),
		BarsFilled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bars_filled_total",
			Help:      "Total number of calendar-gap bars created by forward fill",
		}, []string{"class"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fetch_errors_total",
			Help:      "Total number of provider fetch failures after retries",
		}, []string{"class"}),
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "provider_calls_total",
			Help:      "Total number of provider HTTP calls by outcome",
		}, []string{"outcome"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fetch_latency_seconds",
			Help:      "Provider fetch latency per symbol",
			Buckets:   prometheus.DefBuckets,
		}, []string{"class"}),

		// Normalization metrics
		RowsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "rows_normalized_total",
			Help:      "Total number of price rows given a USD value",
		}, []string{"class", "mode"}),

		// Engine metrics
		TasksComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tasks_computed_total",
			Help:      "Total number of window tasks that produced a record",
		}, []string{"strategy"}),
		TasksSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tasks_skipped_total",
			Help:      "Total number of window tasks skipped for insufficient data",
		}, []string{"strategy"}),
		TasksFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tasks_failed_total",
			Help:      "Total number of window tasks that failed",
		}, []string{"strategy"}),
		RecordsFlushed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "records_flushed_total",
			Help:      "Total number of performance records upserted",
		}, []string{"strategy"}),
		TaskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "task_duration_seconds",
			Help:      "Duration of one window task",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"strategy"}),
		FlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "flush_duration_seconds",
			Help:      "Duration of one batched upsert flush",
			Buckets:   prometheus.DefBuckets,
		}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of one full engine run",
			Buckets:   []float64{1, 10, 60, 300, 900, 3600},
		}, []string{"strategy", "status"}),

		// API metrics
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful engine run",
		}, []string{"strategy"}),
		LastSuccessfulIngest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of the last successful ingestion pass",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTaskComputed increments the computed counter for a strategy.
func RecordTaskComputed(strategy string, seconds float64) {
	DefaultMetrics.TasksComputed.WithLabelValues(strategy).Inc()
	DefaultMetrics.TaskDuration.WithLabelValues(strategy).Observe(seconds)
}

// RecordTaskSkipped increments the skipped counter for a strategy.
func RecordTaskSkipped(strategy string) {
	DefaultMetrics.TasksSkipped.WithLabelValues(strategy).Inc()
}

// RecordTaskFailed increments the failed counter for a strategy.
func RecordTaskFailed(strategy string) {
	DefaultMetrics.TasksFailed.WithLabelValues(strategy).Inc()
}

// RecordFlush records one batched upsert flush.
func RecordFlush(strategy string, records int, seconds float64) {
	DefaultMetrics.RecordsFlushed.WithLabelValues(strategy).Add(float64(records))
	DefaultMetrics.FlushDuration.Observe(seconds)
}

// RecordIngest records one symbol's ingestion outcome.
func RecordIngest(class string, fetched, upserted, filled int) {
	DefaultMetrics.BarsFetched.WithLabelValues(class).Add(float64(fetched))
	DefaultMetrics.BarsUpserted.WithLabelValues(class).Add(float64(upserted))
	DefaultMetrics.BarsFilled.WithLabelValues(class).Add(float64(filled))
}
