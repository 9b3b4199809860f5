// Package metrics exposes tracker counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick outcomes.
const (
	OutcomeNotified        = "notified"
	OutcomeSendFailed      = "send_failed"
	OutcomeCooldown        = "cooldown"
	OutcomeOverheadDaytime = "overhead_daytime"
	OutcomeNightOnly       = "night_only"
	OutcomeIdle            = "idle"
)

// Sources.
const (
	SourcePosition = "position"
	SourceSunTimes = "sun_times"
)

// Metrics groups the collectors; each instance registers on its own registry.
type Metrics struct {
	Registry       *prometheus.Registry
	TicksTotal     *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	TickDuration   prometheus.Histogram
	LastNotified   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iss_tracker_ticks_total",
			Help: "Poll ticks by outcome",
		}, []string{"outcome"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iss_tracker_source_failures_total",
			Help: "Upstream fetch failures by source",
		}, []string{"source"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "iss_tracker_tick_duration_seconds",
			Help:    "Wall time of one poll tick",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		LastNotified: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iss_tracker_last_notification_timestamp_seconds",
			Help: "Unix time of the last confirmed notification",
		}),
	}
	m.Registry.MustRegister(m.TicksTotal, m.SourceFailures, m.TickDuration, m.LastNotified)
	return m
}

// Handler serves the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
