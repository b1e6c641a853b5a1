package security

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
)

// Limit configures a fixed window for one operation.
type Limit struct {
	MaxRequests int64
	Window      time.Duration
}

// DefaultLimits mirrors the storefront's per-operation budgets.
var DefaultLimits = map[string]Limit{
	"add-item":     {MaxRequests: 10, Window: time.Minute},
	"clear-cart":   {MaxRequests: 3, Window: 5 * time.Minute},
	"create-order": {MaxRequests: 5, Window: time.Minute},
	"step-check":   {MaxRequests: 30, Window: time.Minute},
}

// fallbackLimit applies to operations without an explicit budget.
var fallbackLimit = Limit{MaxRequests: 30, Window: time.Minute}

// Decision is the outcome of a rate-limit check, with the metadata the
// transport layer maps onto 429 headers.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// RateLimiter enforces independent fixed windows per (operation, identifier)
// pair. Counting happens through the store's atomic IncrWindow, so two
// concurrent requests never observe the same remaining budget.
type RateLimiter struct {
	store  cache.Store
	limits map[string]Limit
}

func NewRateLimiter(store cache.Store, limits map[string]Limit) *RateLimiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &RateLimiter{store: store, limits: limits}
}

// Allow consumes one request from the window for (operation, identifier).
// Calls 1..N inside a window are allowed; call N+1 is denied and carries the
// window's reset time. A call after the window elapses starts a fresh one.
func (l *RateLimiter) Allow(ctx context.Context, operation, identifier string) (Decision, error) {
	limit, ok := l.limits[operation]
	if !ok {
		limit = fallbackLimit
	}

	key := cache.Key("ratelimit", operation+":"+identifier)
	count, resetAt, err := l.store.IncrWindow(ctx, key, limit.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("security: rate limit %s/%s: %w", operation, identifier, err)
	}

	remaining := limit.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
