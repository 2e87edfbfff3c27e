package store

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(mutationsMetric, keysMetric, snapshotBytesMetric)
}

var (
	mutationsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dragdrop",
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Total store mutations by operation and outcome",
	}, []string{"op", "outcome"})

	keysMetric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dragdrop",
		Subsystem: "store",
		Name:      "keys",
		Help:      "Number of keys after the last persisted mutation",
	}, []string{"store"})

	snapshotBytesMetric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dragdrop",
		Subsystem: "store",
		Name:      "snapshot_bytes",
		Help:      "Size of the last persisted snapshot",
	}, []string{"store"})
)
