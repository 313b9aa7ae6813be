package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey is the gin context key the request id middleware writes
const RequestIDKey = "request_id"

// GinMiddleware scopes base to the request, stores it on the request
// context for L, and logs one line per request once the handler returns
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(RequestIDKey)

		reqLogger := base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		ctx := WithContext(c.Request.Context(), reqLogger)
		if requestID != "" {
			ctx = WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		l := L(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("http request", fields...)
		default:
			l.Info("http request", fields...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it with the stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				base.Error("panic recovered",
					zap.String(RequestIDKey, c.GetString(RequestIDKey)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
