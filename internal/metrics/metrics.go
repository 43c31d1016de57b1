// Package metrics exposes the Prometheus instruments for the API and the
// retention sweeper.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	LifecycleTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transition_count",
			Help: "Total number of briefing and project status transitions",
		},
		[]string{"entity", "to_status"},
	)

	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_count",
			Help: "Total number of domain event notifications",
		},
		[]string{"event", "status"}, // status: published, failed
	)

	RetentionActionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_action_count",
			Help: "Total number of retention policy actions",
		},
		[]string{"policy", "outcome"}, // policy: warn, purge, anonymize
	)

	RetentionSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_sweep_duration_seconds",
			Help:    "Duration of a full retention sweep in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementLifecycleTransition(entity, toStatus string) {
	LifecycleTransitionCount.WithLabelValues(entity, toStatus).Inc()
}

func IncrementNotification(event, status string) {
	NotificationCount.WithLabelValues(event, status).Inc()
}

func IncrementRetentionAction(policy, outcome string) {
	RetentionActionCount.WithLabelValues(policy, outcome).Inc()
}

func RecordRetentionSweepDuration(duration time.Duration) {
	RetentionSweepDuration.Observe(duration.Seconds())
}
