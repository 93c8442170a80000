package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	"dynamicpro_backend/internal/platform/metrics"
	"dynamicpro_backend/internal/shared/ratelimiter"
)

// PerClientIP returns middleware that limits requests by client IP under the given route label.
// Limiter errors fail open: the request proceeds and the error is logged.
func PerClientIP(limiter ratelimiter.Limiter, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), route+":"+ip)
		if err != nil {
			slog.Warn("rate limiter unavailable", "route", route, "remote_addr", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := res.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
			metrics.RateLimited.WithLabelValues(route).Inc()
			slog.Warn("rate limit exceeded", "route", route, "remote_addr", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.NewError(api.CodeRateLimited, "too many requests"))
			return
		}
		c.Next()
	}
}
