package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCSRFIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager(cache.NewMemoryStore(), DefaultCSRFTTL)

	token, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 bytes hex-encoded

	ok, err := m.Validate(ctx, "sess-a", token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCSRFRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager(cache.NewMemoryStore(), DefaultCSRFTTL)

	token, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)

	// A byte-identical token issued to a different session must not pass.
	ok, err := m.Validate(ctx, "sess-b", token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSRFReissueInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager(cache.NewMemoryStore(), DefaultCSRFTTL)

	first, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := m.Validate(ctx, "sess-a", first)
	require.NoError(t, err)
	assert.False(t, ok, "no two tokens are simultaneously valid per session")

	ok, err = m.Validate(ctx, "sess-a", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCSRFExpiry(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	m := NewCSRFManager(cache.NewMemoryStoreWithClock(clk.Now), time.Hour)

	token, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	ok, err := m.Validate(ctx, "sess-a", token)
	require.NoError(t, err)
	assert.False(t, ok, "expired tokens read as absent")
}

func TestCSRFRejectsWhenNoneIssued(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager(cache.NewMemoryStore(), DefaultCSRFTTL)

	for _, token := range []string{"", "deadbeef"} {
		ok, err := m.Validate(ctx, "sess-a", token)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestCSRFRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager(cache.NewMemoryStore(), DefaultCSRFTTL)

	token, err := m.Issue(ctx, "sess-a")
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, "sess-a"))

	ok, err := m.Validate(ctx, "sess-a", token)
	require.NoError(t, err)
	assert.False(t, ok)
}
