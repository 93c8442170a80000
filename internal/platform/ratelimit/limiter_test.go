package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	t.Parallel()

	rdb := newTestRedis(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(rdb, 2, time.Minute, "")
	l.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, res.Limit)

	now = now.Add(10 * time.Second)
	res, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	now = now.Add(10 * time.Second)
	res, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	// oldest entry leaves the window 40s from now
	assert.Equal(t, now.Add(40*time.Second), res.ResetAt)

	// a different key is independent
	res, err = l.Allow(ctx, "login:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// once the first request slides out, one slot frees up
	now = now.Add(41 * time.Second)
	res, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestSlidingWindowLimiter_RedisDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	_, err := NewSlidingWindowLimiter(rdb, 1, time.Minute, "test:").Allow(context.Background(), "k")

	assert.Error(t, err)
}
