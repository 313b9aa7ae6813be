package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/bullion/internal/domain/shared"
)

// entry is a reserved key; result stays empty until the request completes
type entry struct {
	result    string
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// Reservations are not shared between processes, so it only suits
// single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Reserve claims key for ttl. Returns false while an unexpired
// reservation or result exists.
func (s *InMemoryIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Complete stores result for key and restarts its ttl
func (s *InMemoryIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{result: result, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns the stored result, or "" while the key is unknown,
// expired or still in flight
func (s *InMemoryIdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || !s.now().Before(e.expiresAt) {
		return "", nil
	}
	return e.result, nil
}

// Release drops the reservation for key
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
