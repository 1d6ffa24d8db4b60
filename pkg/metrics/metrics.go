// Package metrics exposes Prometheus collectors for the monitor loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the monitor's Prometheus collectors. Each Monitor owns
// its own registry; nothing registers globally.
type Metrics struct {
	registry *prometheus.Registry

	EventsRecorded prometheus.Counter
	AlertsFired    *prometheus.CounterVec
	FetchFailures  prometheus.Counter
	LoopIterations prometheus.Counter

	TokensUsed      prometheus.Gauge
	TokensRemaining prometheus.Gauge
	BurnRate        prometheus.Gauge
	TotalCost       prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "burndown_events_recorded_total",
			Help: "Total number of usage events recorded",
		}),
		AlertsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "burndown_alerts_fired_total",
			Help: "Total number of alerts fired, by kind",
		}, []string{"kind"}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "burndown_usage_fetch_failures_total",
			Help: "Total number of failed upstream usage fetches",
		}),
		LoopIterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "burndown_monitor_iterations_total",
			Help: "Total number of monitor loop iterations",
		}),
		TokensUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burndown_tokens_used",
			Help: "Tokens consumed in the active session",
		}),
		TokensRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burndown_tokens_remaining",
			Help: "Tokens remaining against the monthly limit",
		}),
		BurnRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burndown_burn_rate_tokens_per_minute",
			Help: "Instantaneous burn rate over the trailing hour",
		}),
		TotalCost: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burndown_total_cost_usd",
			Help: "Dollar cost accumulated in the active session",
		}),
	}
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
