package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "bullion:idempotency:"

// pendingMarker is stored while a reserved request has not completed.
// A completed key always holds a transaction id.
const pendingMarker = "-"

// RedisIdempotencyStore implements IdempotencyStore using Redis, so every
// instance behind a load balancer sees the same reservations
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Reserve claims key with SET NX so exactly one caller wins
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete stores result for key and restarts its ttl
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, result, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent result: %w", err)
	}
	return nil
}

// Lookup returns the stored result, or "" while the key is unknown or in flight
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", nil
	}
	return val, nil
}

// Release deletes the reservation for key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
