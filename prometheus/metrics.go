package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// StatusCodeCategoryCounter groups responses into 2xx, 4xx and 5xx
	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category"},
	)

	// Login counter by outcome
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_auth_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // result can be "success", "failure"
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_token", "expired_token", "forbidden", "invalid_credentials"
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "resolve", "create", "activate", "deactivate"
	)

	// Resource operation counter, e.g. shipment/create
	ResourceOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_resource_operations_total",
			Help: "Total number of resource mutations by resource and operation",
		},
		[]string{"resource", "operation"},
	)

	// Vehicle assignment outcomes
	VehicleAssignmentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_vehicle_assignments_total",
			Help: "Total number of vehicle assignment attempts by result",
		},
		[]string{"result"}, // result can be "assigned", "unassigned", "noop", "unavailable"
	)

	// Domain event publishing outcomes
	EventPublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_events_published_total",
			Help: "Total number of domain events handed to the publisher",
		},
		[]string{"event", "result"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transport_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transport_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete", "report"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transport_info",
			Help: "Information about the transport service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCodeCategoryCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ResourceOperationCounter)
	prometheus.MustRegister(VehicleAssignmentCounter)
	prometheus.MustRegister(EventPublishCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations.
// Use as: defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// statusCategory maps an HTTP status to its counter label
func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return ""
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware(serviceName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)
			if err != nil {
				// Resolve the final status before recording it
				c.Error(err)
			}

			duration := time.Since(start).Seconds()
			statusCode := c.Response().Status
			status := strconv.Itoa(statusCode)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"service":  serviceName,
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"service":  serviceName,
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			if category := statusCategory(statusCode); category != "" {
				StatusCodeCategoryCounter.With(prometheus.Labels{
					"service":  serviceName,
					"category": category,
				}).Inc()
			}

			return nil
		}
	}
}

// RecordLogin records a login attempt outcome
func RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordResourceOperation records a create, update or delete on a tenant resource
func RecordResourceOperation(resource, operation string) {
	ResourceOperationCounter.With(prometheus.Labels{"resource": resource, "operation": operation}).Inc()
}

// RecordVehicleAssignment records an assignment outcome
func RecordVehicleAssignment(result string) {
	VehicleAssignmentCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordEventPublish records whether a domain event reached the broker
func RecordEventPublish(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventPublishCounter.With(prometheus.Labels{"event": event, "result": result}).Inc()
}
