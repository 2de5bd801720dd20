package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocked(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	u := User{}
	require.False(t, u.Locked(now))

	future := now.Add(time.Minute)
	u.LockUntil = &future
	require.True(t, u.Locked(now))

	past := now.Add(-time.Second)
	u.LockUntil = &past
	require.False(t, u.Locked(now), "expired lock lapses without a sweeper")
}

func TestLockRemainingMinutes(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	u := User{}
	require.Equal(t, 0, u.LockRemainingMinutes(now))

	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{15 * time.Minute, 15},
		{14*time.Minute + time.Second, 15}, // rounds up
		{30 * time.Second, 1},              // never reports 0 while locked
		{time.Second, 1},
		{-time.Minute, 0},
	}
	for _, tc := range cases {
		until := now.Add(tc.remaining)
		u.LockUntil = &until
		require.Equal(t, tc.want, u.LockRemainingMinutes(now), "remaining %s", tc.remaining)
	}
}
