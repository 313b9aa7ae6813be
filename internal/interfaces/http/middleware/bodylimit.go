package middleware

import (
	"net/http"

	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds write requests; a swap or a large sale stays
// far below it
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(logger.RequestIDKey),
			))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
