// Package metrics holds the application's prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dynamicpro"

var (
	// AuthAttempts counts login, signup and demo-login requests by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Authentication requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	// TokenRejections counts bearer tokens refused by the auth middleware.
	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Rejected bearer tokens by reason.",
	}, []string{"reason"})

	// RateLimited counts requests refused by the rate limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by route.",
	}, []string{"route"})
)

// Handler exposes the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
