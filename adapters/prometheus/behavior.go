package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jbrestan/Orleankka/core/behavior"
	"github.com/jbrestan/Orleankka/core/metrics"
)

// behaviorMetrics implements behavior.Metrics using Prometheus.
type behaviorMetrics struct {
	transitionDuration *prometheus.HistogramVec
	transitionsTotal   *prometheus.CounterVec
	messagesTotal      *prometheus.CounterVec
	remindersTotal     *prometheus.CounterVec
}

// NewBehaviorMetrics creates a new Prometheus implementation of
// behavior.Metrics.
func NewBehaviorMetrics(reg prometheus.Registerer) behavior.Metrics {
	m := &behaviorMetrics{
		transitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orleankka_behavior_transition_duration_seconds",
			Help:    "Behavior transition time in seconds, hooks included",
			Buckets: defaultBuckets,
		}, []string{"actor_type"}),

		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orleankka_behavior_transitions_total",
			Help: "Total number of behavior transitions",
		}, []string{"actor_type", "success"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orleankka_behavior_messages_total",
			Help: "Total number of dispatched messages",
		}, []string{"actor_type", "handled"}),

		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orleankka_behavior_reminders_total",
			Help: "Total number of dispatched reminders",
		}, []string{"actor_type", "handled"}),
	}

	reg.MustRegister(
		m.transitionDuration,
		m.transitionsTotal,
		m.messagesTotal,
		m.remindersTotal,
	)

	return m
}

func (m *behaviorMetrics) TransitionDuration(actorType string) metrics.Timer {
	return newTimer(m.transitionDuration.WithLabelValues(actorType))
}

func (m *behaviorMetrics) Transitioned(actorType string, success bool) {
	m.transitionsTotal.WithLabelValues(actorType, boolToStr(success)).Inc()
}

func (m *behaviorMetrics) MessageDispatched(actorType string, handled bool) {
	m.messagesTotal.WithLabelValues(actorType, boolToStr(handled)).Inc()
}

func (m *behaviorMetrics) ReminderDispatched(actorType string, handled bool) {
	m.remindersTotal.WithLabelValues(actorType, boolToStr(handled)).Inc()
}

var _ behavior.Metrics = (*behaviorMetrics)(nil)
