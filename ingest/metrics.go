package ingest

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricRowsFetched = "rows_fetched_total"
	MetricRowsWritten = "rows_written_total"
	MetricRuns        = "runs_total"
)

var CounterRowsFetched = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tabingest",
		Name:      MetricRowsFetched,
		Help:      "Rows read from the database source.",
	},
)

var CounterRowsWritten = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tabingest",
		Name:      MetricRowsWritten,
		Help:      "Rows persisted, by dataset (raw, train, test).",
	},
	[]string{
		"dataset",
	},
)

var CounterRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tabingest",
		Name:      MetricRuns,
		Help:      "Database ingest runs, by outcome (done or the error kind).",
	},
	[]string{
		"result",
	},
)

func init() {
	prometheus.MustRegister(CounterRowsFetched)
	prometheus.MustRegister(CounterRowsWritten)
	prometheus.MustRegister(CounterRuns)
}
