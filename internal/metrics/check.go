package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "total",
			Help:      "Health checks performed, by outcome",
		},
		[]string{"status"},
	)

	CheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Time until a single health check resolved",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Time until every check of an evaluation cycle settled",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

func init() {
	Registry.MustRegister(ChecksTotal, CheckDuration, CycleDuration)
}
