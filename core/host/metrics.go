package host

import "github.com/jbrestan/Orleankka/core/metrics"

// Turn kinds reported to HostMetrics.TurnDuration.
const (
	TurnReceive    = "receive"
	TurnReminder   = "reminder"
	TurnActivate   = "activate"
	TurnDeactivate = "deactivate"
)

// HostMetrics defines the instrumentation hooks for the hosting pillar.
// All methods are thread-safe.
type HostMetrics interface {
	Activated(success bool)
	Deactivated()
	ActiveActors(count int)

	TurnDuration(kind string) metrics.Timer
	ReminderFired(success bool)
}

// nopHostMetrics is a no-op implementation of HostMetrics.
type nopHostMetrics struct{}

func (nopHostMetrics) Activated(bool)                    {}
func (nopHostMetrics) Deactivated()                      {}
func (nopHostMetrics) ActiveActors(int)                  {}
func (nopHostMetrics) TurnDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopHostMetrics) ReminderFired(bool)                {}

// NopHostMetrics returns a no-op HostMetrics implementation.
func NopHostMetrics() HostMetrics { return nopHostMetrics{} }
