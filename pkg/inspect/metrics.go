package inspect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus metrics for the inspector.
type metrics struct {
	changeSets    *prometheus.CounterVec
	framesDropped *prometheus.CounterVec
	watchers      prometheus.Gauge
}

// initMetrics registers the inspector metrics with the given registry.
func initMetrics(registry prometheus.Registerer) *metrics {
	factory := promauto.With(registry)

	return &metrics{
		changeSets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyro",
			Subsystem: "inspect",
			Name:      "change_sets_total",
			Help:      "Total number of change sets forwarded to live watchers",
		}, []string{"model"}),

		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyro",
			Subsystem: "inspect",
			Name:      "frames_dropped_total",
			Help:      "Total number of change-set frames dropped on slow watchers",
		}, []string{"model"}),

		watchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pyro",
			Subsystem: "inspect",
			Name:      "live_watchers",
			Help:      "Number of open live-watch WebSocket connections",
		}),
	}
}
