package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(nonceLookupsTotal) }

var nonceLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nonce_lookups_total",
		Help: "Replay guard lookups by backing store and outcome.",
	},
	[]string{"store", "result"}, // e.g., store="redis", result="seen"
)

func IncNonceLookup(store string, seen bool) {
	result := "fresh"
	if seen {
		result = "seen"
	}
	nonceLookupsTotal.WithLabelValues(norm(store), result).Inc()
}
