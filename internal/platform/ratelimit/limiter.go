// Package ratelimit provides a Redis-backed sliding window rate limiter and its gin middleware.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dynamicpro_backend/internal/shared/ratelimiter"
)

// slidingWindow trims entries older than the window, then admits the request if the remaining count is under limit.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local counter_key = KEYS[2]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local count = redis.call('ZCARD', key)
if count < limit then
	local seq = redis.call('INCR', counter_key)
	redis.call('ZADD', key, now, now .. ':' .. seq)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', counter_key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry_after = 0
if #oldest >= 2 then
	retry_after = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry_after}
`)

// SlidingWindowLimiter limits requests per key over a rolling window using a Redis sorted set.
// It is shared by every replica pointing at the same Redis.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

var _ ratelimiter.Limiter = (*SlidingWindowLimiter)(nil)

// NewSlidingWindowLimiter creates a limiter allowing limit requests per window for each key.
func NewSlidingWindowLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *SlidingWindowLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &SlidingWindowLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (ratelimiter.Result, error) {
	now := l.now()
	redisKey := l.prefix + key

	vals, err := slidingWindow.Run(ctx, l.rdb, []string{redisKey, redisKey + ":seq"},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return ratelimiter.Result{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(vals) < 3 {
		return ratelimiter.Result{}, fmt.Errorf("unexpected rate limit script result length: %d", len(vals))
	}

	res := ratelimiter.Result{
		Allowed:   vals[0] == 1,
		Limit:     l.limit,
		Remaining: int(vals[1]),
		ResetAt:   now.Add(l.window),
	}
	if !res.Allowed && vals[2] > 0 {
		res.ResetAt = now.Add(time.Duration(vals[2]) * time.Millisecond)
	}
	return res, nil
}
