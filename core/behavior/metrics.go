package behavior

import "github.com/jbrestan/Orleankka/core/metrics"

// Metrics defines the instrumentation hooks for the behavior pillar.
// All methods are thread-safe.
type Metrics interface {
	// Transitions
	TransitionDuration(actorType string) metrics.Timer
	Transitioned(actorType string, success bool)

	// Dispatch; handled is false when the whole super chain was exhausted
	MessageDispatched(actorType string, handled bool)
	ReminderDispatched(actorType string, handled bool)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) TransitionDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) Transitioned(string, bool)               {}
func (nopMetrics) MessageDispatched(string, bool)          {}
func (nopMetrics) ReminderDispatched(string, bool)         {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
