package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Polling loop
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_poll_cycles_total",
		Help: "Total number of completed fetch+publish cycles",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_poll_cycle_duration_seconds",
		Help:    "Time taken by one fetch+publish cycle",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// Upstream fetches
	QuoteFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_quote_fetch_errors_total",
		Help: "Per-ticker upstream fetch failures (ticker omitted from snapshot)",
	}, []string{"symbol"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_upstream_request_duration_seconds",
		Help:    "Time taken by upstream market-data requests",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"endpoint"})

	// Websocket fan-out
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_ws_clients",
		Help: "Currently connected websocket subscribers",
	})

	DroppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_ws_dropped_messages_total",
		Help: "Snapshot messages dropped because a client send buffer was full",
	})
)
