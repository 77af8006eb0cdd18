package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, maxRequests int, window time.Duration) (*MemoryLimiter, *time.Time) {
	t.Helper()
	l := NewMemoryLimiter(Policy{MaxRequests: maxRequests, Window: window}, time.Hour)
	t.Cleanup(func() { _ = l.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		result, err := l.Check(context.Background(), "contact:203.0.113.7")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}

	result, err := l.Check(context.Background(), "contact:203.0.113.7")
	require.NoError(t, err)
	assert.False(t, result.Allowed, "request over the limit should be rejected")
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	l, now := newTestLimiter(t, 5, time.Minute)
	key := Key(CategoryAuth, "203.0.113.7")

	for i := 0; i < 5; i++ {
		result, err := l.Check(context.Background(), key)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := l.Check(context.Background(), key)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	*now = now.Add(time.Minute + time.Second)

	result, err = l.Check(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "exhausted key should recover after the window elapses")
}

func TestMemoryLimiterRejectionsDoNotConsumeQuota(t *testing.T) {
	l, now := newTestLimiter(t, 2, time.Minute)
	key := Key(CategoryContact, "198.51.100.9")

	for i := 0; i < 2; i++ {
		result, _ := l.Check(context.Background(), key)
		require.True(t, result.Allowed)
	}

	// Hammer the limiter while exhausted; rejected attempts are not recorded.
	for i := 0; i < 10; i++ {
		*now = now.Add(time.Second)
		result, _ := l.Check(context.Background(), key)
		require.False(t, result.Allowed)
	}

	// Once the original two requests age out the key recovers, even though
	// rejections kept arriving in between.
	*now = now.Add(time.Minute)
	result, _ := l.Check(context.Background(), key)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)

	result, _ := l.Check(context.Background(), Key(CategoryContact, "203.0.113.7"))
	require.True(t, result.Allowed)
	result, _ = l.Check(context.Background(), Key(CategoryContact, "203.0.113.7"))
	require.False(t, result.Allowed)

	result, _ = l.Check(context.Background(), Key(CategoryContact, "203.0.113.8"))
	assert.True(t, result.Allowed, "a different IP has its own window")
	result, _ = l.Check(context.Background(), Key(CategoryTrack, "203.0.113.7"))
	assert.True(t, result.Allowed, "a different category has its own window")
}

func TestMemoryLimiterSweepEvictsIdleKeys(t *testing.T) {
	l, now := newTestLimiter(t, 5, time.Minute)

	l.Check(context.Background(), "contact:a")
	l.Check(context.Background(), "contact:b")

	*now = now.Add(30 * time.Second)
	l.Check(context.Background(), "contact:b")

	*now = now.Add(45 * time.Second)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.windows, "contact:a", "fully aged key is evicted")
	assert.Contains(t, l.windows, "contact:b", "key with a live timestamp survives")
	assert.Len(t, l.windows["contact:b"], 1, "aged timestamps are pruned")
}
