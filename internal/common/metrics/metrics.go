// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Total number of predicted rows by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_prediction_duration_seconds",
			Help:    "Duration of a pipeline call, including the model load",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	BatchRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_batch_rows",
			Help:    "Number of rows per uploaded batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	ModelLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_model_loads_total",
			Help: "Model artifact loads from disk by outcome",
		},
		[]string{"provider", "status"},
	)

	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_model_load_duration_seconds",
			Help:    "Time spent reading and decoding the model artifact",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchResultsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_batch_results_stored_total",
			Help: "Batch result CSVs written to the result store",
		},
		[]string{"backend", "status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_notifications_sent_total",
			Help: "Batch-complete notifications by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	ItemSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_item_searches_total",
			Help: "Item identifier searches by catalog source and outcome",
		},
		[]string{"source", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
