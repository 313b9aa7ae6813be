package middleware

import (
	"time"

	"github.com/erp/bullion/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// MeterProvider is the OpenTelemetry meter provider.
	MeterProvider *telemetry.MeterProvider
	// Logger reports instrument setup failures. Optional.
	Logger *zap.Logger
}

// httpMetrics holds all HTTP-related metrics instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

// newHTTPMetrics creates all HTTP metrics instruments from a meter.
func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(
		meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics returns a Gin middleware that counts and times requests by
// route pattern. It is a pass-through when metrics are disabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	mw, err := HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("http metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return mw
}

// HTTPMetricsWithMeter returns HTTP metrics middleware using an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter) (gin.HandlerFunc, error) {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		route := getRoutePattern(c)
		method := c.Request.Method

		metrics.requestTotal.Inc(ctx,
			telemetry.AttrHTTPMethod.String(method),
			telemetry.AttrHTTPRoute.String(route),
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
		)

		// duration and size only by method and route to keep cardinality low
		baseAttrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(method),
			telemetry.AttrHTTPRoute.String(route),
		}
		metrics.requestDuration.RecordDuration(ctx, time.Since(start), baseAttrs...)
		if size := c.Writer.Size(); size > 0 {
			metrics.responseSize.Record(ctx, float64(size), baseAttrs...)
		}
	}, nil
}

// getRoutePattern returns the route pattern (e.g., "/api/v1/products/:id")
// instead of the actual path to avoid high cardinality issues.
func getRoutePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unknown"
	}
	return route
}

func passThrough(c *gin.Context) {
	c.Next()
}
