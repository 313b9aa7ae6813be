package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the result of a request keyed by a client
// supplied idempotency key.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key was already
	// claimed, in which case Lookup may return the stored result.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result reference for a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the stored result reference, or "" if the key is unknown
	// or still in flight
	Lookup(ctx context.Context, key string) (string, error)

	// Release drops a reservation after a failed request so it can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key and its result are remembered
	TTL time.Duration

	// Enabled determines whether idempotency keys are honored
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
