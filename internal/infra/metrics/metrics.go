// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		nonceSweeps,
		rateLimitTriggered,
	)
}

var (
	nonceSweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nonce_store_purged_total",
			Help: "Expired nonces dropped by the in-memory store sweeper.",
		},
	)

	rateLimitTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_triggered_total",
			Help: "Requests rejected by the per-client rate limiter, by route.",
		},
		[]string{"route"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func since(start time.Time) float64 { return time.Since(start).Seconds() }

func AddNoncesPurged(n int) {
	nonceSweeps.Add(float64(n))
}

func IncRateLimitTriggered(route string) {
	rateLimitTriggered.WithLabelValues(norm(route)).Inc()
}
