// Package metrics exposes node counters over Prometheus, grounded on
// the teacher's pkg/monitoring concern but backed by the real
// prometheus/client_golang registry rather than the teacher's hand-
// rolled text exporter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the node updates.
type Metrics struct {
	BlocksAccepted  prometheus.Counter
	BlocksRejected  prometheus.Counter
	MempoolSize     prometheus.Gauge
	ConnectedPeers  prometheus.Gauge
	TemplatesServed prometheus.Counter
}

// New registers and returns a fresh Metrics set against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BlocksAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_accepted_total",
			Help: "Number of blocks accepted into the chain.",
		}),
		BlocksRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_rejected_total",
			Help: "Number of blocks rejected by add_block.",
		}),
		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_mempool_size",
			Help: "Current number of admitted, unconfirmed transactions.",
		}),
		ConnectedPeers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_connected_peers",
			Help: "Current number of open peer connections.",
		}),
		TemplatesServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_templates_served_total",
			Help: "Number of FetchTemplate requests served.",
		}),
	}
}

// Serve starts an HTTP server exposing the registry at /metrics on
// addr. It runs until the process exits; errors are left to the
// caller's logger.
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
