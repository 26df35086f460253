// Package metrics defines Prometheus metrics for the sales forecaster.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salesforecast"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last liveness probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last readiness probe succeeded, 0 otherwise.",
	})
)

// Forecast submission metrics.
var (
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of forecast jobs submitted to the remote engine.",
	})

	SubmissionsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_skipped_total",
		Help:      "Submissions skipped because no historical sales data existed.",
	})

	SubmissionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submission_errors_total",
		Help:      "Total number of failed forecast submissions.",
	})

	SubmissionSalesRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submission_sales_rows",
		Help:      "Historical sales rows included per submission.",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
	})
)

// Discount resolution metrics.
var (
	ResolvedDiscountsPerProduct = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolved_discounts_per_product",
		Help:      "Number of candidate discounts resolved per product.",
		Buckets:   prometheus.LinearBuckets(0, 2, 8),
	})
)

// Polling metrics.
var (
	PollCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_cycles_total",
		Help:      "Total number of remote job status polls.",
	})

	PollFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_failures_total",
		Help:      "Total number of poll loops ended by an error.",
	})

	ForecastsReadyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forecasts_ready_total",
		Help:      "Total number of forecasts that reached the ready state.",
	})
)

// Remote API metrics.
var (
	RemoteAPICallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_api_calls_total",
		Help:      "Total cumulative calls to the remote forecasting API.",
	})

	RemoteAPIDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "remote_api_daily_usage",
		Help:      "Remote API calls within the current rolling 24-hour window.",
	})

	RemoteAPIDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_api_daily_limit_hits_total",
		Help:      "Times the daily remote API quota was exhausted.",
	})
)
