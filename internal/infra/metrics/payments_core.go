package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		checkoutRequestsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Verified payments by status (success/cancelled/failed).",
		},
		[]string{"status"},
	)

	checkoutRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_requests_total",
			Help: "Signed authorisation requests built, labeled by protocol version and manifest use.",
		},
		[]string{"protocol", "manifest"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncCheckout(protocol string, manifest bool) {
	m := "false"
	if manifest {
		m = "true"
	}
	checkoutRequestsTotal.WithLabelValues(norm(protocol), m).Inc()
}
