package middleware

import (
	"net/http"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const (
	// IdempotencyKeyHeader lets a client retry a write without recording it twice
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayedHeader is set on responses answered from a stored result
	IdempotentReplayedHeader = "Idempotent-Replayed"
	// MaxIdempotencyKeyLength caps the header value
	MaxIdempotencyKeyLength = 128
)

// Idempotency moves the Idempotency-Key header onto the request context,
// where the ledger service picks it up. Requests without the header pass
// through untouched.
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if !validIdempotencyKey(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeIdempotencyKey,
				"Idempotency-Key must be 1-128 printable ASCII characters",
				c.GetString(logger.RequestIDKey),
			))
			return
		}
		c.Request = c.Request.WithContext(ledgerapp.WithIdempotencyKey(c.Request.Context(), key))
		c.Next()
	}
}

func validIdempotencyKey(key string) bool {
	if len(key) > MaxIdempotencyKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x21 || key[i] > 0x7e {
			return false
		}
	}
	return true
}
