package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	httpInFlight           prometheus.Gauge
	autosaveWritesTotal    *prometheus.CounterVec
	autosaveSkippedTotal   prometheus.Counter
	uploadRequestsTotal    *prometheus.CounterVec
	uploadRejectedTotal    *prometheus.CounterVec
	uploadLatencySeconds   prometheus.Histogram
	reviewTransitionsTotal *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_http_in_flight_requests",
			Help: "API requests currently being served.",
		})

		autosaveWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_autosave_writes_total",
			Help: "Autosave write attempts by result.",
		}, []string{"result"})

		autosaveSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_autosave_skipped_total",
			Help: "Autosave writes skipped because the draft was unchanged.",
		})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_upload_requests_total",
			Help: "Attachment upload batches by result.",
		}, []string{"result"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_upload_rejected_total",
			Help: "Attachment uploads rejected by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_upload_latency_seconds",
			Help:    "Duration of attachment upload batches.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		})

		reviewTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_review_transitions_total",
			Help: "Assignment status transitions.",
		}, []string{"from", "to"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_notifications_published_total",
			Help: "Notifications relayed by transport and result.",
		}, []string{"transport", "result"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, httpInFlight,
			autosaveWritesTotal, autosaveSkippedTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatencySeconds,
			reviewTransitionsTotal, notificationsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// HTTPInFlight tracks concurrently served API requests.
func HTTPInFlight() prometheus.Gauge {
	RegisterMetrics()
	return httpInFlight
}

// AutosaveWrites counts autosave writes labelled success, superseded or error.
func AutosaveWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return autosaveWritesTotal
}

// AutosaveSkipped counts deduplicated autosaves.
func AutosaveSkipped() prometheus.Counter {
	RegisterMetrics()
	return autosaveSkippedTotal
}

// UploadRequests counts upload batches.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload batch duration.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// ReviewTransitions counts status transitions.
func ReviewTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewTransitionsTotal
}

// NotificationsPublished counts relayed notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}
