package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "A constant metric with labels for version, commit and gateway protocol.",
	},
	[]string{"version", "commit", "protocol"},
)

func SetBuildInfo(version, commit, protocol string) {
	buildInfo.WithLabelValues(version, commit, protocol).Set(1)
}
