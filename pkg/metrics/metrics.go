// Package metrics provides Prometheus metrics for the Rye service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationRunsTotal tracks notification batch runs by outcome
	NotificationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rye",
			Subsystem: "notifier",
			Name:      "runs_total",
			Help:      "Total number of notification batch runs by outcome",
		},
		[]string{"outcome"},
	)

	// NotificationRunDuration tracks notification batch run duration in seconds
	NotificationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rye",
			Subsystem: "notifier",
			Name:      "run_duration_seconds",
			Help:      "Duration of notification batch runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// NotificationUsersProcessed tracks users processed per run by result
	NotificationUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rye",
			Subsystem: "notifier",
			Name:      "users_processed_total",
			Help:      "Total number of users processed by the notifier by result",
		},
		[]string{"result"},
	)

	// EmailsSentTotal tracks digest emails sent by status
	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rye",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Total number of digest emails sent by status",
		},
		[]string{"status"},
	)

	// WatermarkAdvancesTotal tracks watermark upserts
	WatermarkAdvancesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rye",
			Subsystem: "notifier",
			Name:      "watermark_advances_total",
			Help:      "Total number of notification watermark advances",
		},
	)

	// CacheRequestsTotal tracks view cache lookups by result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rye",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of view cache lookups by result",
		},
		[]string{"view", "result"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rye",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordNotificationRun records a notification batch run
func RecordNotificationRun(outcome string, durationSeconds float64) {
	NotificationRunsTotal.WithLabelValues(outcome).Inc()
	NotificationRunDuration.Observe(durationSeconds)
}

// RecordUserProcessed records a per-user notifier result
func RecordUserProcessed(result string) {
	NotificationUsersProcessed.WithLabelValues(result).Inc()
}

// RecordEmailSent records an email send attempt
func RecordEmailSent(status string) {
	EmailsSentTotal.WithLabelValues(status).Inc()
}

// RecordCacheRequest records a view cache lookup
func RecordCacheRequest(view, result string) {
	CacheRequestsTotal.WithLabelValues(view, result).Inc()
}
