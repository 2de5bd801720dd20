package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(start time.Time) (*Memory, *time.Time) {
	clock := start
	m := NewMemory()
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestMemoryAllowUpToMax(t *testing.T) {
	m, _ := newTestLimiter(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, m.Allow(ctx, "ip:1.2.3.4", 10*time.Minute, 3), "attempt %d", i+1)
	}
	require.False(t, m.Allow(ctx, "ip:1.2.3.4", 10*time.Minute, 3))
}

func TestMemoryDeniedAttemptNotRecorded(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, clock := newTestLimiter(start)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, m.Allow(ctx, "k", 10*time.Minute, 3))
	}
	// Hammering while denied must not extend the window.
	for i := 0; i < 10; i++ {
		require.False(t, m.Allow(ctx, "k", 10*time.Minute, 3))
	}

	// Just past the original window the key is clear again; had the denied
	// attempts been recorded, it would still be blocked.
	*clock = start.Add(10*time.Minute + time.Second)
	require.True(t, m.Allow(ctx, "k", 10*time.Minute, 3))
}

func TestMemoryWindowSlides(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, clock := newTestLimiter(start)
	ctx := context.Background()

	require.True(t, m.Allow(ctx, "k", 10*time.Minute, 2))
	*clock = start.Add(6 * time.Minute)
	require.True(t, m.Allow(ctx, "k", 10*time.Minute, 2))
	require.False(t, m.Allow(ctx, "k", 10*time.Minute, 2))

	// The first attempt ages out at +10m, the second at +16m.
	*clock = start.Add(11 * time.Minute)
	require.True(t, m.Allow(ctx, "k", 10*time.Minute, 2))
	require.False(t, m.Allow(ctx, "k", 10*time.Minute, 2))
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m, _ := newTestLimiter(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.True(t, m.Allow(ctx, "a", time.Minute, 1))
	require.False(t, m.Allow(ctx, "a", time.Minute, 1))
	require.True(t, m.Allow(ctx, "b", time.Minute, 1))
}

func TestMemoryPruneDropsIdleKeys(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, clock := newTestLimiter(start)
	ctx := context.Background()

	m.Allow(ctx, "old", time.Minute, 5)
	*clock = start.Add(2 * time.Minute)
	m.Allow(ctx, "fresh", time.Minute, 5)

	m.prune(time.Minute)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotContains(t, m.entries, "old")
	require.Contains(t, m.entries, "fresh")
}
