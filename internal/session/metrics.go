package session

import "github.com/prometheus/client_golang/prometheus"

var (
	checkInsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymsession",
		Subsystem: "session",
		Name:      "check_ins_total",
		Help:      "Number of visits opened through the agent.",
	})

	checkOutsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymsession",
		Subsystem: "session",
		Name:      "check_outs_total",
		Help:      "Number of visits closed, labeled manual or auto.",
	}, []string{"kind"})

	forcedLogoutsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymsession",
		Subsystem: "session",
		Name:      "forced_logouts_total",
		Help:      "Number of logouts forced by the inactivity limit.",
	})

	elapsedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymsession",
		Subsystem: "session",
		Name:      "elapsed_seconds",
		Help:      "Seconds since check-in as rendered by the tracker, 0 while idle.",
	})
)

func init() {
	prometheus.MustRegister(checkInsCounter, checkOutsCounter, forcedLogoutsCounter, elapsedGauge)
}
