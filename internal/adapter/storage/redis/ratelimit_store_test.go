package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_AllowWithinLimit(t *testing.T) {
	client := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "acct-1:transfers", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	client := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	var last bool
	for i := 0; i < 4; i++ {
		result, err := store.Allow(ctx, "acct-2:transfers", 3, time.Minute)
		require.NoError(t, err)
		last = result.Allowed
	}
	assert.False(t, last, "fourth request over a limit of 3 must be blocked")
}

func TestRateLimitStore_RemainingCountsDown(t *testing.T) {
	client := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	r1, err := store.Allow(ctx, "acct-3:ledger", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(9), r1.Remaining)

	r2, err := store.Allow(ctx, "acct-3:ledger", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), r2.Remaining)
	assert.Equal(t, int64(10), r2.Limit)
	assert.Greater(t, r2.ResetAt, time.Now().Unix()-int64(time.Minute.Seconds()))
}

func TestRateLimitStore_IsolatedKeys(t *testing.T) {
	client := newTestClient(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	_, err := store.Allow(ctx, "acct-a:transfers", 1, time.Minute)
	require.NoError(t, err)

	result, err := store.Allow(ctx, "acct-b:transfers", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "different identifiers must not share counters")
}
