// Package cache provides the key-value store with TTL semantics backing the
// security guard's CSRF tokens and rate-limit windows. The interface is
// swappable: an in-memory map for tests and single-node deployments, Redis
// when the checkout API runs behind more than one replica.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a TTL key-value store with an atomic fixed-window counter.
type Store interface {
	// Set writes value under key with the given ttl, replacing any
	// previous value and its remaining ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or "" when the key is absent or its
	// ttl has elapsed.
	Get(ctx context.Context, key string) (string, error)

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// IncrWindow atomically increments the fixed-window counter for key.
	// The first call inside a window starts it; the returned count is the
	// number of calls observed in the current window and resetAt is when
	// the window elapses. Two concurrent calls must never observe the
	// same count.
	IncrWindow(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Key namespaces a cache key by operation, e.g. Key("csrf", sessionID).
func Key(operation, key string) string {
	return fmt.Sprintf("checkout:%s:%s", operation, key)
}
