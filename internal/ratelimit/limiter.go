// Package ratelimit provides the time-windowed request counter behind the
// password-reset request flow. The counter is a soft throttle, not a
// security boundary: losing its state on restart is acceptable.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window counter keyed by requester identity. Allow
// returns true when the attempt is permitted, in which case the attempt is
// recorded; a denied attempt is not recorded beyond pruning.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) bool
}

// Memory is the in-process Limiter used on single-instance deployments. It
// keeps a timestamp list per key, prunes entries older than the window on
// each check, and drops keys whose window has emptied so the map does not
// grow without bound.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	now     func() time.Time // injectable for tests
}

// NewMemory returns an empty in-process limiter.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]time.Time), now: time.Now}
}

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, key string, window time.Duration, max int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-window)

	kept := m.entries[key][:0]
	for _, ts := range m.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= max {
		m.entries[key] = kept
		return false
	}

	m.entries[key] = append(kept, now)
	return true
}

// prune removes keys with no live entries. Called opportunistically; Allow
// already prunes the key it touches, this sweeps the rest.
func (m *Memory) prune(window time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-window)
	for key, times := range m.entries {
		live := false
		for _, ts := range times {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(m.entries, key)
		}
	}
}

// StartPruner sweeps idle keys every interval until ctx is cancelled.
func (m *Memory) StartPruner(ctx context.Context, interval, window time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.prune(window)
			}
		}
	}()
}
