package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidserve_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Content store metrics
var (
	StoreUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_store_uploads_total",
			Help: "Total number of upload attempts",
		},
		[]string{"status"},
	)

	StoreUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidserve_store_upload_bytes",
			Help:    "Size of stored uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 10),
		},
	)

	CatalogQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_catalog_queries_total",
			Help: "Total number of catalog database queries",
		},
		[]string{"operation", "status"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidserve_catalog_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Range delivery metrics
var (
	DeliveryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_delivery_requests_total",
			Help: "Total number of download requests by response kind",
		},
		[]string{"kind"}, // "full", "partial", "unsatisfiable", "not_found"
	)

	DeliveryBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidserve_delivery_bytes_sent_total",
			Help: "Total number of body bytes written to download responses",
		},
	)
)

// Transcoder metrics
var (
	EncodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_encode_jobs_total",
			Help: "Total number of encode jobs",
		},
		[]string{"mode", "status"}, // mode: "single", "ladder"
	)

	EncodeJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidserve_encode_job_duration_seconds",
			Help:    "Encode job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	EncodeJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidserve_encode_jobs_in_progress",
			Help: "Number of encode jobs currently in progress",
		},
	)

	EncodeJobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidserve_encode_jobs_rejected_total",
			Help: "Total number of encode jobs rejected because all slots were busy",
		},
	)

	EncodeOutputBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidserve_encode_output_bytes_total",
			Help: "Total bytes of encoder output files by rung",
		},
		[]string{"resolution"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidserve_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}


