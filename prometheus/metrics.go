package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"callhub-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callhub_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Signup counter
	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callhub_signup_total",
			Help: "Total number of tenant signups",
		},
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callhub_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "token_expired", "cross_tenant" etc.
	)

	// Cross-tenant violation counter, the security signal operators alert on
	CrossTenantViolationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callhub_cross_tenant_violations_total",
			Help: "Total number of detected cross-tenant access attempts",
		},
	)

	// Call operation counter
	CallOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callhub_call_operations_total",
			Help: "Total number of call operations",
		},
		[]string{"operation"}, // "create", "status", "transcript"
	)

	// Provider error counter
	ProviderErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callhub_provider_errors_total",
			Help: "Total number of call provider request failures",
		},
		[]string{"operation"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callhub_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callhub_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callhub_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update"
	)

	// Provider request duration
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callhub_provider_request_duration_seconds",
			Help:    "Duration of call provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// InitMetrics registers all metrics with the default registry
func InitMetrics(_ *config.Config) {
	prometheus.MustRegister(
		LoginCounter,
		SignupCounter,
		AuthErrorCounter,
		CrossTenantViolationCounter,
		CallOperationCounter,
		ProviderErrorCounter,
		HTTPRequestCounter,
		RequestDuration,
		DBOperationDuration,
		ProviderRequestDuration,
	)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordCallOperation increments the call operation counter
func RecordCallOperation(operation string) {
	CallOperationCounter.WithLabelValues(operation).Inc()
}

// TrackDBOperation returns a function that records the duration of a database
// operation; use with defer: defer TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// TrackProviderRequest returns a function that records the duration of a
// provider request
func TrackProviderRequest(operation string) func(time.Time) {
	return func(start time.Time) {
		ProviderRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates an Echo middleware that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(path, method, statusStr).Inc()
			RequestDuration.WithLabelValues(path, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
