package cache

import (
	"context"
	"fmt"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// the in-memory store otherwise
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"retries routed to another instance will not be deduplicated",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
