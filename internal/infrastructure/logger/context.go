package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	staffIDKey   contextKey = "staff_id"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records the request id for L
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id recorded on ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithStaffID records the acting staff member for L
func WithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffIDKey, staffID)
}

// StaffID returns the staff id recorded on ctx
func StaffID(ctx context.Context) string {
	id, _ := ctx.Value(staffIDKey).(string)
	return id
}

// TraceFields returns trace_id and span_id of the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the context logger enriched with request, staff and trace
// correlation fields.
//
//	logger.L(ctx).Info("sale recorded", zap.String("code", tx.Code))
func L(ctx context.Context) *zap.Logger {
	return enrich(ctx, FromContext(ctx))
}

// ForContext is L for components holding their own logger: the logger
// attached to ctx wins, fallback is used otherwise.
func ForContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return enrich(ctx, l)
	}
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return enrich(ctx, fallback)
}

func enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	fields := TraceFields(ctx)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := StaffID(ctx); id != "" {
		fields = append(fields, zap.String("staff_id", id))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
