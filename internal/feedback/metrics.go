package feedback

import "github.com/prometheus/client_golang/prometheus"

var (
	pollPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymsession",
		Subsystem: "feedback",
		Name:      "poll_passes_total",
		Help:      "Number of successful readiness polls against the workout backend.",
	})

	pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymsession",
		Subsystem: "feedback",
		Name:      "poll_errors_total",
		Help:      "Number of readiness polls that failed and were absorbed.",
	})

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymsession",
		Subsystem: "feedback",
		Name:      "sets_ready",
		Help:      "Number of sets with unacknowledged feedback after the last poll.",
	})
)

func init() {
	prometheus.MustRegister(pollPasses, pollErrors, readyGauge)
}
