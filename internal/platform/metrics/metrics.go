// Package metrics registers the gateway's Prometheus collectors and exposes
// the scrape endpoint.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpstreamRequests counts NPHIES exchange calls by operation and outcome
	// (success, business_error, transient_error, auth_error).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nphies_gateway_upstream_requests_total",
			Help: "NPHIES exchange calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// UpstreamDuration observes round-trip latency per operation, including
	// retries.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nphies_gateway_upstream_duration_seconds",
			Help:    "NPHIES exchange call latency by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RetryAttempts counts extra attempts spent on transient failures.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nphies_gateway_retry_attempts_total",
			Help: "Retried NPHIES exchange attempts by operation.",
		},
		[]string{"operation"},
	)

	// TokenRefreshes counts client-credential grants against the exchange
	// token endpoint.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nphies_gateway_token_refreshes_total",
			Help: "NPHIES access-token refreshes by outcome.",
		},
		[]string{"outcome"},
	)

	// Logins counts caller login attempts by outcome.
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nphies_gateway_logins_total",
			Help: "Caller login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Handler returns the Prometheus exposition endpoint wrapped for echo.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
