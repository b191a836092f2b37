package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns a private registry so multiple dispatch runs in one process
// never collide on metric registration.
type Collector struct {
	registry *prometheus.Registry

	txsBuilt  *prometheus.CounterVec
	txsSent   *prometheus.CounterVec
	txsFailed *prometheus.CounterVec

	submitDuration prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		txsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spamoor",
			Name:      "txs_built_total",
			Help:      "Transactions built and signed, by strategy.",
		}, []string{"strategy"}),
		txsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spamoor",
			Name:      "txs_sent_total",
			Help:      "Transactions accepted by an RPC endpoint, by strategy.",
		}, []string{"strategy"}),
		txsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spamoor",
			Name:      "txs_failed_total",
			Help:      "Dispatch iterations that failed, by strategy.",
		}, []string{"strategy"}),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spamoor",
			Name:      "submit_duration_seconds",
			Help:      "Wall-clock time of eth_sendRawTransaction calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(c.txsBuilt, c.txsSent, c.txsFailed, c.submitDuration)
	return c
}

// Registry exposes the collector's registry for callers that mount an
// exporter.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) TxBuilt(strategy string) {
	c.txsBuilt.WithLabelValues(strategy).Inc()
}

func (c *Collector) TxSent(strategy string, took time.Duration) {
	c.txsSent.WithLabelValues(strategy).Inc()
	c.submitDuration.Observe(took.Seconds())
}

func (c *Collector) TxFailed(strategy string) {
	c.txsFailed.WithLabelValues(strategy).Inc()
}
