// Package middleware provides HTTP middleware for the ledger API.
package middleware

import (
	"net/http"

	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// Tracing returns OpenTelemetry tracing middleware.
// It wraps otelgin and adds request_id and idempotency attributes to the
// server span. The span name follows "HTTP METHOD route_pattern".
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes enriches the active server span once request scoped values
// are known. Place it after RequestID and Tracing.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.GetString(logger.RequestIDKey); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if c.GetHeader(IdempotencyKeyHeader) != "" {
				span.SetAttributes(attribute.Bool("ledger.idempotent", true))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks the span failed for 5xx responses and records the
// status for 4xx ones, which are caller errors.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
