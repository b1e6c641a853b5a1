package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	limiter := NewRateLimiter(cache.NewMemoryStoreWithClock(clk.Now), map[string]Limit{
		"add-item": {MaxRequests: 3, Window: time.Minute},
	})

	// Calls 1..N are allowed with a shrinking remaining budget.
	for i := int64(1); i <= 3; i++ {
		d, err := limiter.Allow(ctx, "add-item", "sess-a")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "call %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	// Call N+1 inside the window is denied with the window's reset time.
	d, err := limiter.Allow(ctx, "add-item", "sess-a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, clk.Now().Add(time.Minute), d.ResetAt)

	// After the window elapses, the next call starts a fresh window.
	clk.Advance(61 * time.Second)
	d, err = limiter.Allow(ctx, "add-item", "sess-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(2), d.Remaining)
}

func TestRateLimiterIndependentKeys(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(cache.NewMemoryStore(), map[string]Limit{
		"add-item":   {MaxRequests: 1, Window: time.Minute},
		"clear-cart": {MaxRequests: 1, Window: time.Minute},
	})

	d, err := limiter.Allow(ctx, "add-item", "sess-a")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Same operation, different identifier: separate window.
	d, err = limiter.Allow(ctx, "add-item", "sess-b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Same identifier, different operation: separate window.
	d, err = limiter.Allow(ctx, "clear-cart", "sess-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// The original pair is now exhausted.
	d, err = limiter.Allow(ctx, "add-item", "sess-a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestRateLimiterFallbackLimit(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(cache.NewMemoryStore(), map[string]Limit{})

	d, err := limiter.Allow(ctx, "unknown-op", "sess-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, fallbackLimit.MaxRequests-1, d.Remaining)
}
