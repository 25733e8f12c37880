package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
)

type entry struct {
	resultID  string // empty while the request is in flight
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps idempotency keys in process memory.
// Suitable for single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its janitor goroutine
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(time.Minute)
	return s
}

func (s *InMemoryIdempotencyStore) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return entry{}, false
	}
	return e, true
}

// Reserve implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Complete implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key, resultID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{resultID: resultID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	return e.resultID, ok, nil
}

// Release implements shared.IdempotencyStore. Completed keys are kept.
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.resultID == "" {
		delete(s.entries, key)
	}
	return nil
}

// Close stops the janitor goroutine
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of stored keys, expired ones included
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryIdempotencyStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
