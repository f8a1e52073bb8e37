package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 1000000, 10000000},
		},
		[]string{"method", "endpoint"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Business metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"}, // success, failure, throttled
	)

	inquirySubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_submissions_total",
			Help: "Total number of contact inquiries stored",
		},
	)

	inquiryForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_forwards_total",
			Help: "Total number of inquiry forwards",
		},
		[]string{"status"}, // success, failure
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "New-inquiry notifications by channel and outcome",
		},
		[]string{"channel", "outcome"}, // sent, failed, skipped
	)

	notificationQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_queue_dropped_total",
			Help: "Inquiries whose notifications were dropped because the queue was full",
		},
	)

	notificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Inquiries waiting for notification dispatch",
		},
	)

	messagingReadyWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_ready_wait_seconds",
			Help:    "Time spent waiting for the messaging channel to become ready",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"ready"},
	)

	mediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"status", "resized"},
	)
)

var idSegment = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|/[0-9A-HJKMNP-TV-Z]{26}[^/]*`)

// endpoint collapses ids in the path so label cardinality stays bounded.
func endpoint(path string) string {
	return idSegment.ReplaceAllString(path, "/{id}")
}

// PrometheusMiddleware creates a middleware that records Prometheus metrics
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		path := endpoint(r.URL.Path)

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(wrapped.size))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// RecordAuthAttempt records an authentication attempt
func RecordAuthAttempt(status string) {
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordInquirySubmission records a stored inquiry
func RecordInquirySubmission() {
	inquirySubmissionsTotal.Inc()
}

// RecordInquiryForward records a forward attempt
func RecordInquiryForward(success bool) {
	inquiryForwardsTotal.WithLabelValues(outcome(success)).Inc()
}

// RecordNotification records one channel attempt of the new-inquiry fan-out
func RecordNotification(channel, result string) {
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// RecordNotificationDropped records an inquiry dropped by a full queue
func RecordNotificationDropped() {
	notificationQueueDropped.Inc()
}

// SetNotificationQueueDepth reports the dispatcher backlog
func SetNotificationQueueDepth(n int) {
	notificationQueueDepth.Set(float64(n))
}

// RecordMessagingReadyWait records how long a readiness wait took
func RecordMessagingReadyWait(d time.Duration, ready bool) {
	messagingReadyWait.WithLabelValues(strconv.FormatBool(ready)).Observe(d.Seconds())
}

// RecordMediaUpload records an upload
func RecordMediaUpload(success, resized bool) {
	mediaUploadsTotal.WithLabelValues(outcome(success), strconv.FormatBool(resized)).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dbQueriesTotal.WithLabelValues(operation, status).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
