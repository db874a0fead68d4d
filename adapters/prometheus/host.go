package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jbrestan/Orleankka/core/host"
	"github.com/jbrestan/Orleankka/core/metrics"
)

// hostMetrics implements host.HostMetrics using Prometheus.
type hostMetrics struct {
	activationsTotal   *prometheus.CounterVec
	deactivationsTotal prometheus.Counter
	activeActors       prometheus.Gauge
	turnDuration       *prometheus.HistogramVec
	remindersTotal     *prometheus.CounterVec
}

// NewHostMetrics creates a new Prometheus implementation of host.HostMetrics.
func NewHostMetrics(reg prometheus.Registerer) host.HostMetrics {
	m := &hostMetrics{
		activationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orleankka_host_activations_total",
			Help: "Total number of actor activations",
		}, []string{"success"}),

		deactivationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orleankka_host_deactivations_total",
			Help: "Total number of actor deactivations",
		}),

		activeActors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orleankka_host_active_actors",
			Help: "Number of resident actor instances",
		}),

		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orleankka_host_turn_duration_seconds",
			Help:    "Actor turn execution time in seconds",
			Buckets: defaultBuckets,
		}, []string{"kind"}),

		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orleankka_host_reminder_fires_total",
			Help: "Total number of reminder firings",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.activationsTotal,
		m.deactivationsTotal,
		m.activeActors,
		m.turnDuration,
		m.remindersTotal,
	)

	return m
}

func (m *hostMetrics) Activated(success bool) {
	m.activationsTotal.WithLabelValues(boolToStr(success)).Inc()
}

func (m *hostMetrics) Deactivated() {
	m.deactivationsTotal.Inc()
}

func (m *hostMetrics) ActiveActors(count int) {
	m.activeActors.Set(float64(count))
}

func (m *hostMetrics) TurnDuration(kind string) metrics.Timer {
	return newTimer(m.turnDuration.WithLabelValues(kind))
}

func (m *hostMetrics) ReminderFired(success bool) {
	m.remindersTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ host.HostMetrics = (*hostMetrics)(nil)
