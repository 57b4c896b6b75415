package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddlewareCountsResolvedStatus(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware("metrics-test"))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	counter := HTTPRequestCounter.With(prometheus.Labels{
		"service": "metrics-test", "endpoint": "/boom", "method": http.MethodGet, "status": "418",
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
	category := StatusCodeCategoryCounter.With(prometheus.Labels{"service": "metrics-test", "category": "4xx"})
	assert.Equal(t, float64(1), testutil.ToFloat64(category))
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(EventPublishCounter.With(prometheus.Labels{"event": "probe", "result": "error"}))
	RecordEventPublish("probe", errors.New("down"))
	after := testutil.ToFloat64(EventPublishCounter.With(prometheus.Labels{"event": "probe", "result": "error"}))
	assert.Equal(t, before+1, after)

	RecordVehicleAssignment("noop")
	assert.GreaterOrEqual(t, testutil.ToFloat64(VehicleAssignmentCounter.With(prometheus.Labels{"result": "noop"})), float64(1))
}

func TestTrackDBOperationObserves(t *testing.T) {
	before := testutil.CollectAndCount(DBOperationDuration)
	TrackDBOperation("metrics-test-op")(time.Now())
	assert.Equal(t, before+1, testutil.CollectAndCount(DBOperationDuration))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "5xx", statusCategory(503))
	assert.Equal(t, "", statusCategory(0))
}
