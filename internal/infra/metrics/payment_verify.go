package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		PaymentVerifyRequests,
		PaymentVerifyDuration,
	)
}

var (
	// Count of gateway payload verifications grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): configuration|authentication|staleness|replay|signature_mismatch|unknown_result|unknown
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of gateway callback/return verifications by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of verification (including nonce store round trips) grouped by result.
	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of gateway payload verification in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"result"},
	)
)

func ObserveVerifyOK(start time.Time) {
	PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
	PaymentVerifyDuration.WithLabelValues("ok").Observe(since(start))
}

func ObserveVerifyFail(start time.Time, reason string) {
	PaymentVerifyRequests.WithLabelValues("fail", norm(reason)).Inc()
	PaymentVerifyDuration.WithLabelValues("fail").Observe(since(start))
}
