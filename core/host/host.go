package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jbrestan/Orleankka/core/behavior"
	"github.com/jbrestan/Orleankka/core/turns"
)

type (
	// Actor is implemented by behavior-driven actor types hosted here. Setup
	// runs once per activation, before any message is delivered; it is where
	// the actor picks its initial behavior and installs engine callbacks.
	Actor interface {
		Setup(eng *behavior.Engine) error
	}

	// Factory creates a fresh actor instance for a key. The instance's type
	// must already be registered with behavior.Register (or behavior.Ensure).
	Factory func(key string) (Actor, error)

	// Options configures a Host.
	Options struct {
		Context       context.Context
		Logger        *slog.Logger
		Metrics       HostMetrics
		Behavior      behavior.Options // engine options for hosted actors
		TurnQueueSize int              // pending turns per actor (default 64)
	}

	// Host runs behavior-driven actors keyed by string id. Every call into
	// one actor (activation, messages, reminders, deactivation) executes
	// as a turn on that actor's key, so the engine's single-threaded-per-actor
	// contract holds without the engine locking anything.
	Host struct {
		id      string
		ctx     context.Context
		cancel  context.CancelFunc
		log     *slog.Logger
		metrics HostMetrics

		factory     Factory
		behaviorOpt behavior.Options
		runner      *turns.Runner[string]
		flight      singleflight.Group

		mu        sync.Mutex
		instances map[string]*instance
		closed    bool
	}

	instance struct {
		key        string
		activation string // unique per activation, for log correlation
		actor      Actor
		engine     *behavior.Engine

		mu        sync.Mutex
		reminders map[string]chan struct{}
	}
)

// New creates a Host around the given actor factory.
func New(factory Factory, opts Options) *Host {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopHostMetrics()
	}

	h := &Host{
		id:          fmt.Sprintf("host-%s", gonanoid.Must(6)),
		metrics:     opts.Metrics,
		factory:     factory,
		behaviorOpt: opts.Behavior,
		runner:      turns.NewRunner[string](turns.WithQueueSize(opts.TurnQueueSize)),
		instances:   make(map[string]*instance),
	}
	h.ctx, h.cancel = context.WithCancel(opts.Context)
	h.log = opts.Logger.With(slog.String("host", h.id))
	if h.behaviorOpt.Logger == nil {
		h.behaviorOpt.Logger = h.log
	}
	return h
}

// Ask routes a message to the actor for key and waits for its reply. The
// actor is activated first if it is not resident yet.
func (h *Host) Ask(ctx context.Context, key string, msg any) (any, error) {
	inst, err := h.activate(ctx, key)
	if err != nil {
		return nil, err
	}

	var res any
	err = h.runner.Do(ctx, key, func() error {
		defer h.metrics.TurnDuration(TurnReceive).ObserveDuration()
		var herr error
		res, herr = inst.engine.HandleReceive(ctx, msg)
		return herr
	})
	return res, err
}

// Tell routes a fire-and-forget message to the actor for key, waiting for
// the handler to finish but discarding its result.
func (h *Host) Tell(ctx context.Context, key string, msg any) error {
	_, err := h.Ask(ctx, key, msg)
	return err
}

// Deactivate removes the actor for key, stopping its reminders and running
// HandleDeactivate as its final turn. A no-op for keys that are not resident.
func (h *Host) Deactivate(ctx context.Context, key string) error {
	h.mu.Lock()
	inst, ok := h.instances[key]
	delete(h.instances, key)
	count := len(h.instances)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	h.metrics.ActiveActors(count)

	inst.stopAllReminders()

	err := h.runner.Do(ctx, key, func() error {
		defer h.metrics.TurnDuration(TurnDeactivate).ObserveDuration()
		return inst.engine.HandleDeactivate(ctx)
	})
	h.metrics.Deactivated()
	h.log.Debug("actor deactivated",
		slog.String("key", key),
		slog.String("activation", inst.activation),
	)
	return err
}

// Shutdown deactivates every resident actor and stops the host. Messages
// arriving afterwards fail with ErrClosed.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	keys := make([]string, 0, len(h.instances))
	for k := range h.instances {
		keys = append(keys, k)
	}
	h.mu.Unlock()

	var firstErr error
	for _, k := range keys {
		if err := h.Deactivate(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	h.runner.Close()
	h.cancel()
	return firstErr
}

// Resident reports whether an activated actor exists for key.
func (h *Host) Resident(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.instances[key]
	return ok
}

// activate returns the resident instance for key, constructing and
// activating one on first use. Concurrent first activations of the same key
// collapse into a single construction.
func (h *Host) activate(ctx context.Context, key string) (*instance, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if inst, ok := h.instances[key]; ok {
		h.mu.Unlock()
		return inst, nil
	}
	h.mu.Unlock()

	v, err, _ := h.flight.Do(key, func() (any, error) {
		h.mu.Lock()
		if inst, ok := h.instances[key]; ok {
			h.mu.Unlock()
			return inst, nil
		}
		h.mu.Unlock()

		inst, err := h.buildInstance(ctx, key)
		if err != nil {
			h.metrics.Activated(false)
			return nil, err
		}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return nil, ErrClosed
		}
		h.instances[key] = inst
		count := len(h.instances)
		h.mu.Unlock()

		h.metrics.Activated(true)
		h.metrics.ActiveActors(count)
		h.log.Debug("actor activated",
			slog.String("key", key),
			slog.String("activation", inst.activation),
			slog.String("behavior", inst.engine.Current()),
		)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*instance), nil
}

func (h *Host) buildInstance(ctx context.Context, key string) (*instance, error) {
	act, err := h.factory(key)
	if err != nil {
		return nil, fmt.Errorf("actor factory failed for %q: %w", key, err)
	}

	opts := h.behaviorOpt
	opts.Logger = opts.Logger.With(slog.String("key", key))
	eng, err := behavior.New(act, opts)
	if err != nil {
		return nil, err
	}
	if err := act.Setup(eng); err != nil {
		return nil, fmt.Errorf("actor setup failed for %q: %w", key, err)
	}

	inst := &instance{
		key:        key,
		activation: gonanoid.Must(8),
		actor:      act,
		engine:     eng,
		reminders:  make(map[string]chan struct{}),
	}

	// activation is the instance's first turn
	err = h.runner.Do(ctx, key, func() error {
		defer h.metrics.TurnDuration(TurnActivate).ObserveDuration()
		return eng.HandleActivate(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("activation failed for %q: %w", key, err)
	}
	return inst, nil
}

func (i *instance) stopAllReminders() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, stop := range i.reminders {
		close(stop)
		delete(i.reminders, id)
	}
}
