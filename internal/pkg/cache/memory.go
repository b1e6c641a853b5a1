package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	count     int64
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-memory Store. Every operation that
// touches an entry happens under the lock, so a sweep can never expose a
// partially-cleared entry: readers see either the live entry or none at all.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock injects the clock, making expiry deterministic in
// tests.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.clock().Add(ttl)}
	return nil
}

// Get treats an expired entry as absent and purges it lazily.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", nil
	}
	if !s.clock().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// IncrWindow increments under the lock, so concurrent callers always observe
// distinct counts. An elapsed window starts fresh at 1.
func (s *MemoryStore) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = entry{count: 1, expiresAt: now.Add(window)}
		s.entries[key] = e
		return 1, e.expiresAt, nil
	}

	e.count++
	s.entries[key] = e
	return e.count, e.expiresAt, nil
}

// Janitor periodically evicts expired entries so abandoned sessions do not
// accumulate. Run blocks until ctx is cancelled; start it in a goroutine.
func (s *MemoryStore) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of live entries, expired or not. Used by tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
