package host

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jbrestan/Orleankka/core/turns"
)

// RegisterReminder starts a periodic reminder for an activated actor. Each
// firing is delivered as a turn on the actor's key via
// behavior.Engine.HandleReminder, so reminders never overlap messages.
// Delivery errors are logged and counted, not fatal: a reminder keeps firing
// until it is unregistered, the actor deactivates, or the host shuts down.
func (h *Host) RegisterReminder(key, id string, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("reminder %q: period must be positive", id)
	}

	h.mu.Lock()
	inst, ok := h.instances[key]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotActivated, key)
	}

	inst.mu.Lock()
	if _, dup := inst.reminders[id]; dup {
		inst.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrReminderExists, id)
	}
	stop := make(chan struct{})
	inst.reminders[id] = stop
	inst.mu.Unlock()

	go h.runReminder(inst, id, period, stop)
	return nil
}

// UnregisterReminder stops a reminder previously registered for key.
func (h *Host) UnregisterReminder(key, id string) error {
	h.mu.Lock()
	inst, ok := h.instances[key]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotActivated, key)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	stop, ok := inst.reminders[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrReminderNotFound, id)
	}
	close(stop)
	delete(inst.reminders, id)
	return nil
}

func (h *Host) runReminder(inst *instance, id string, period time.Duration, stop <-chan struct{}) {
	tick := time.NewTicker(period)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-h.ctx.Done():
			return
		case <-tick.C:
			err := h.runner.Do(h.ctx, inst.key, func() error {
				defer h.metrics.TurnDuration(TurnReminder).ObserveDuration()
				return inst.engine.HandleReminder(h.ctx, id)
			})
			if err != nil {
				if h.ctx.Err() != nil || errors.Is(err, turns.ErrClosed) {
					return
				}
				h.metrics.ReminderFired(false)
				h.log.Warn("reminder delivery failed",
					slog.String("key", inst.key),
					slog.String("reminder", id),
					slog.Any("error", err),
				)
				continue
			}
			h.metrics.ReminderFired(true)
		}
	}
}
