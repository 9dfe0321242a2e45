package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Zeebe job worker metrics.
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

// Pipeline core metrics.
var (
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_transitions_total",
			Help: "Committed stage transitions by source and target stage",
		},
		[]string{"from", "to"},
	)

	TransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_transitions_rejected_total",
			Help: "Transition requests refused, by error code",
		},
		[]string{"error_code"},
	)

	OfferOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_offer_operations_total",
			Help: "Offer lifecycle operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	StatusWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_status_writes_total",
			Help: "Side-channel status writes by field, source and outcome",
		},
		[]string{"field", "source", "outcome"},
	)

	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_recorded_total",
			Help: "Timeline events by type and outcome (ok, failed, dead_lettered, replayed)",
		},
		[]string{"event_type", "outcome"},
	)

	HookInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_hook_invocations_total",
			Help: "Automation hook invocations by hook, callback and outcome",
		},
		[]string{"hook", "callback", "outcome"},
	)

	HookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_hook_duration_seconds",
			Help:    "Automation hook latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook", "callback"},
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_store_operation_seconds",
			Help:    "Store call latency by operation",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)
