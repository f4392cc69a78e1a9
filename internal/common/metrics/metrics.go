// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_tickets_routed_total",
			Help: "Total number of tickets routed, by outcome",
		},
		[]string{"outcome"},
	)

	RoutingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_failures_total",
			Help: "Total number of routing failures by error code",
		},
		[]string{"error_code"},
	)

	RoutingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "routing_duration_seconds",
			Help: "Duration of a single ticket routing pass in seconds",
		},
		[]string{"outcome"},
	)

	VectorIndexDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_vector_index_degraded_total",
			Help: "Routing passes that ran with the similarity signal zeroed",
		},
	)

	SweepTicketsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "routing_sweep_tickets_scanned",
			Help: "Number of unassigned tickets scanned per sweep",
		},
	)

	SweepActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "routing_sweep_active",
			Help: "Whether a sweep is currently running",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_notifications_sent_total",
			Help: "Total assignment notifications delivered, by channel",
		},
		[]string{"channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_notifications_failed_total",
			Help: "Total assignment notification delivery failures, by channel",
		},
		[]string{"channel"},
	)
)
