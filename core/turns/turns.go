// Package turns executes work as actor turns: all turns submitted for one
// key run strictly sequentially, in submission order, while turns for
// different keys proceed in parallel. It is the mechanism behind the
// single-logical-thread-per-actor guarantee the behavior engine relies on.
package turns

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("turns: runner closed")

// Option configures a Runner.
type Option func(*config)

type config struct {
	queueSize int
}

// WithQueueSize sets the pending-turn queue size per key (default 64).
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// Runner serializes turns per key.
type Runner[K comparable] struct {
	mu       sync.Mutex
	lanes    map[K]*lane
	closed   bool
	inflight sync.WaitGroup // tracks Do calls between enqueue decision and hand-off
	queue    int
}

type lane struct {
	turns chan *turn
}

type turn struct {
	fn   func() error
	done chan error
}

// NewRunner creates a Runner.
func NewRunner[K comparable](opts ...Option) *Runner[K] {
	cfg := &config{queueSize: 64}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Runner[K]{
		lanes: make(map[K]*lane),
		queue: cfg.queueSize,
	}
}

// Do runs fn as a turn for key and blocks until the turn finishes, returning
// its error. Turns for the same key never overlap and execute in Do order.
// If ctx is cancelled while the turn is queued or running, Do returns the
// context error; an already enqueued turn still executes.
func (r *Runner[K]) Do(ctx context.Context, key K, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.inflight.Add(1)
	l := r.laneLocked(key)
	r.mu.Unlock()

	t := &turn{
		fn:   fn,
		done: make(chan error, 1),
	}

	select {
	case l.turns <- t:
	case <-ctx.Done():
		r.inflight.Done()
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		r.inflight.Done()
		return err
	case <-ctx.Done():
		// the turn will still run; the caller just stops waiting
		r.inflight.Done()
		return ctx.Err()
	}
}

// Close rejects further turns and shuts all lanes down. Turns already queued
// still execute.
func (r *Runner[K]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	// let in-flight Do calls finish their hand-off before closing channels
	r.inflight.Wait()

	r.mu.Lock()
	for _, l := range r.lanes {
		close(l.turns)
	}
	r.lanes = nil
	r.mu.Unlock()
}

func (r *Runner[K]) laneLocked(key K) *lane {
	l, ok := r.lanes[key]
	if ok {
		return l
	}
	l = &lane{turns: make(chan *turn, r.queue)}
	r.lanes[key] = l
	go l.run()
	return l
}

func (l *lane) run() {
	for t := range l.turns {
		t.done <- t.fn()
	}
}
