package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"dynamicpro_backend/internal/platform/ratelimit"
	"dynamicpro_backend/internal/shared/ratelimiter"
)

// NewRateLimiter creates a Limiter implementation.
// If Redis is available, it returns a Redis-backed sliding window shared across replicas.
// Otherwise, it falls back to an in-memory fixed window.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) ratelimiter.Limiter {
	if rdb != nil {
		return ratelimit.NewSlidingWindowLimiter(rdb, limit, window, "ratelimit:")
	}
	return ratelimiter.NewRateLimiter(limit, window)
}
