// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Admission metrics.
var (
	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_applications_submitted_total",
			Help: "Applications accepted with an examination number",
		},
		[]string{"category"},
	)

	SelectionAdmitted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_selection_admitted",
			Help: "Applicants admitted by the last selection run",
		},
		[]string{"round", "category"},
	)

	SelectionDeferred = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_selection_deferred",
			Help: "Other-region applicants held back by the regional cap in the last run",
		},
		[]string{"round", "category"},
	)

	SheetCellErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_sheet_cell_errors_total",
			Help: "Invalid cells found in imported score sheets",
		},
		[]string{"kind"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_notifications_sent_total",
			Help: "Result notifications by channel and outcome",
		},
		[]string{"channel", "result"},
	)
)
