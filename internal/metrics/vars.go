package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BookUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbot_book_updates_total",
		Help: "Price snapshots applied to the book, per venue",
	}, []string{"venue"})

	CyclesBuilt = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tbot_cycles",
		Help: "Cycles enumerated for a strategy after filtering",
	}, []string{"strategy"})

	ScanTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbot_scan_ticks_total",
		Help: "Completed scan passes over the cycle set",
	}, []string{"strategy"})

	BestRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tbot_best_rate",
		Help: "Best defined net rate seen in the last scan pass",
	}, []string{"strategy"})

	Executions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbot_executions_total",
		Help: "Cycle execution attempts by outcome",
	}, []string{"strategy", "outcome"})

	ScanDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tbot_scan_duration_seconds",
		Help:    "Time to evaluate all cycles in one pass",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
)

func init() {
	prometheus.MustRegister(
		BookUpdates,
		CyclesBuilt,
		ScanTicks,
		BestRate,
		Executions,
		ScanDuration,
	)
}
