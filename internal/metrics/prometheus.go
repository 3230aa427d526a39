package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Admission metrics
	AdmissionDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_admission_decisions_total",
			Help: "Total number of admission-control decisions",
		},
		[]string{"provider", "allowed"}, // allowed: true|false
	)

	RequestsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_requests_recorded_total",
			Help: "Total number of AI API call attempts recorded in the ledger",
		},
		[]string{"provider", "status"}, // status: success|failure|quota_exceeded
	)

	// Consistency metrics
	ConsistencyChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_consistency_checks_total",
			Help: "Total number of content consistency audits",
		},
		[]string{"recommendation"}, // OK|WARNING|CRITICAL|error
	)

	ScanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "athena_scan_duration_seconds",
			Help:    "Reconciliation scan duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"trigger"}, // trigger: worker|manual
	)

	OrphanVectorsCleaned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athena_orphan_vectors_cleaned_total",
			Help: "Total number of orphaned vector entries deleted",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athena_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "athena_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "athena_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(AdmissionDecisions)
	prometheus.MustRegister(RequestsRecorded)

	prometheus.MustRegister(ConsistencyChecks)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(OrphanVectorsCleaned)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordAdmission records an admission-control decision
func RecordAdmission(provider string, allowed bool) {
	label := "false"
	if allowed {
		label = "true"
	}
	AdmissionDecisions.WithLabelValues(provider, label).Inc()
}
