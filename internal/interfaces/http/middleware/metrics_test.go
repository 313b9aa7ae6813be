package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/bullion/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeter sets up a test meter provider and reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)
	mw, err := HTTPMetricsWithMeter(mp.Meter("test"))
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/products/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/transactions/order", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product is SOLD"})
	})
	return router, reader
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, nil)
	require.NoError(t, err)

	for _, cfg := range []HTTPMetricsConfig{{}, {MeterProvider: mp}} {
		router := gin.New()
		router.Use(HTTPMetrics(cfg))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for _, path := range []string{"/api/v1/products/a", "/api/v1/products/b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/transactions/order", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		counts[route.AsString()+" "+status.Emit()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		"/api/v1/products/:id 200":       2,
		"/api/v1/transactions/order 422": 1,
	}, counts)
}

func TestHTTPMetricsWithMeter_DurationAndSize(t *testing.T) {
	router, reader := newMetricsRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/a", nil))

	rm := collectMetrics(t, reader)

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, telemetry.HTTPDurationBuckets, hist.DataPoints[0].Bounds)
	_, hasStatus := hist.DataPoints[0].Attributes.Value(telemetry.AttrHTTPStatusCode)
	assert.False(t, hasStatus)

	size := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, size)
	sizes, ok := size.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Equal(t, float64(w.Body.Len()), sizes.DataPoints[0].Sum)
}

func TestHTTPMetricsWithMeter_ActiveRequestsSettle(t *testing.T) {
	router, reader := newMetricsRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/a", nil))

	m := findMetricByName(collectMetrics(t, reader), "http_server_active_requests")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Zero(t, total)
}

func TestGetRoutePattern(t *testing.T) {
	var pattern string
	router := gin.New()
	router.GET("/api/v1/transactions/:id", func(c *gin.Context) {
		pattern = getRoutePattern(c)
	})
	router.NoRoute(func(c *gin.Context) {
		pattern = getRoutePattern(c)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/transactions/42", nil))
	assert.Equal(t, "/api/v1/transactions/:id", pattern)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, "unknown", pattern)
}
