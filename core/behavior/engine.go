package behavior

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/jbrestan/Orleankka/internal/reflector"
)

// Base is embedded by actor types to mark them as behavior-driven and to
// give them access to their engine from inside handlers and hooks.
type Base struct {
	engine *Engine
}

// Behavior returns the engine driving this actor instance. It is nil until
// the instance has been passed to New.
func (b *Base) Behavior() *Engine { return b.engine }

func (b *Base) bindEngine(e *Engine) { b.engine = e }

type engineBinder interface{ bindEngine(*Engine) }

// Options configures an Engine.
type Options struct {
	Logger  *slog.Logger
	Metrics Metrics
}

// Engine orchestrates behavior transitions and dispatch for exactly one
// actor instance. It performs no internal locking: the hosting runtime must
// guarantee that calls into one engine are never concurrent (turn-based,
// single logical thread per actor).
type Engine struct {
	actorType string
	log       *slog.Logger
	metrics   Metrics

	// entry points bound to the owning actor instance, so transitions never
	// touch reflection
	entries map[string]func(*Builder)

	current    *node
	inProgress *node
	chain      []string // names of the nodes being configured, outermost first
	configErr  error    // first error raised while configuring, poisons the transition

	unhandledReceive  ReceiveHandler
	unhandledReminder ReminderHandler
	transitioned      func(to, from string)
}

// New builds the engine for one actor instance. The instance's type must
// have been registered (see Register) and must embed Base; New binds the
// registered entry points to the instance and wires the engine into its Base.
func New(owner any, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}

	name := reflector.TypeInfoOf(owner).Name
	entry, ok := lookupEntry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}
	if reflect.TypeOf(owner) != entry.ptr {
		return nil, fmt.Errorf("%w: %s was registered as %s, got %T", ErrTypeNotRegistered, name, entry.ptr, owner)
	}

	binder, ok := owner.(engineBinder)
	if !ok {
		return nil, fmt.Errorf("%w: %s must embed behavior.Base", ErrTypeNotRegistered, name)
	}

	v := reflect.ValueOf(owner)
	entries := make(map[string]func(*Builder), len(entry.defs))
	for bname, m := range entry.defs {
		entries[bname] = v.Method(m.Index).Interface().(func(*Builder))
	}

	e := &Engine{
		actorType: name,
		log:       opts.Logger.With(slog.String("actor_type", name)),
		metrics:   opts.Metrics,
		entries:   entries,
	}
	binder.bindEngine(e)
	return e, nil
}

// Current returns the committed behavior name, or "" before Initial.
func (e *Engine) Current() string {
	if e.current == nil {
		return ""
	}
	return e.current.name
}

// ActorType returns the fully qualified actor type name the engine serves.
func (e *Engine) ActorType() string { return e.actorType }

// Initial sets the first behavior. It can succeed only once per engine and
// fires no lifecycle hooks.
func (e *Engine) Initial(name string) error {
	if e.inProgress != nil {
		return fmt.Errorf("%w: configuring %q", ErrTransitionInProgress, e.inProgress.name)
	}
	if e.current != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyInitialized, e.current.name)
	}
	n, err := e.buildNode(name)
	if err != nil {
		return err
	}
	e.current = n
	e.log.Debug("initial behavior set", slog.String("behavior", name))
	return nil
}

// Become transitions the actor into another behavior. The departing
// behavior's deactivate and unbecome hooks run first, then the switch
// commits, then the new behavior's become hooks, the engine-level
// transition callback and its activate hooks run, in that order.
//
// A hook failure stops the sequence and propagates; the switch is NOT
// rolled back: after any hook error the new behavior is current, its
// activation sequence merely did not finish.
func (e *Engine) Become(ctx context.Context, name string) error {
	if e.inProgress != nil {
		return fmt.Errorf("%w: configuring %q", ErrTransitionInProgress, e.inProgress.name)
	}
	if e.current == nil {
		return fmt.Errorf("%w: call Initial before Become", ErrNotInitialized)
	}
	if name == e.current.name {
		return fmt.Errorf("%w: %q", ErrSelfTransition, name)
	}

	timer := e.metrics.TransitionDuration(e.actorType)
	defer timer.ObserveDuration()

	next, err := e.buildNode(name)
	if err != nil {
		e.metrics.Transitioned(e.actorType, false)
		return err
	}

	// the transition stays marked in-progress until right before the new
	// behavior's activate hooks run, so hooks cannot start a nested one
	e.inProgress = next

	t := Transition{From: e.current.name, To: name}
	err = e.switchTo(ctx, next, t)
	e.inProgress = nil
	if err != nil {
		e.metrics.Transitioned(e.actorType, false)
		return err
	}

	for _, h := range next.onActivate {
		if err := h(ctx, t); err != nil {
			e.metrics.Transitioned(e.actorType, false)
			return err
		}
	}

	e.metrics.Transitioned(e.actorType, true)
	e.log.Debug("behavior transitioned",
		slog.String("from", t.From),
		slog.String("to", t.To),
	)
	return nil
}

// switchTo runs the pre-commit hooks, commits, and runs the post-commit
// hooks up to (not including) the activate hooks. Once any hook has failed
// the current pointer is left switched to next, per the transition contract.
func (e *Engine) switchTo(ctx context.Context, next *node, t Transition) error {
	old := e.current

	commit := func() { e.current = next }
	defer commit()

	for _, h := range old.onDeactivate {
		if err := h(ctx, t); err != nil {
			return err
		}
	}
	for _, h := range old.onUnbecome {
		if err := h(ctx, t); err != nil {
			return err
		}
	}

	commit()

	for _, h := range next.onBecome {
		if err := h(ctx, t); err != nil {
			return err
		}
	}
	if e.transitioned != nil {
		e.transitioned(t.To, t.From)
	}
	return nil
}

// attachSuper resolves a Super declaration made while configuring n.
func (e *Engine) attachSuper(n *node, name string) error {
	if n.super != nil {
		err := fmt.Errorf("%w: %q already delegates to %q", ErrSuperAlreadySet, n.name, n.super.name)
		e.poison(err)
		return err
	}
	if slices.Contains(e.chain, name) {
		err := &CycleError{Behavior: name, Chain: append(slices.Clone(e.chain), name)}
		e.poison(err)
		return err
	}

	// a super that is already an ancestor of the pre-transition current
	// behavior is reused as-is, keeping its configured handlers; only the
	// in-progress chain itself is rebuilt from scratch
	if e.current != nil {
		if existing := e.current.inChain(name); existing != nil {
			n.super = existing
			return nil
		}
	}

	sup, err := e.buildNode(name)
	if err != nil {
		e.poison(err)
		return err
	}
	n.super = sup
	return nil
}

// buildNode creates an empty node for name, invokes its entry point against
// a fresh Builder, and freezes the node. The in-progress marker points at
// the node for the duration and is restored afterwards, which makes nested
// Super configuration work.
func (e *Engine) buildNode(name string) (*node, error) {
	fn, ok := e.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a declared behavior of %s", ErrBehaviorNotFound, name, e.actorType)
	}

	n := newNode(name)
	prev := e.inProgress
	e.inProgress = n
	e.chain = append(e.chain, name)

	fn(&Builder{engine: e, node: n})

	n.frozen = true
	e.chain = e.chain[:len(e.chain)-1]
	e.inProgress = prev

	if err := e.configErr; err != nil {
		e.configErr = nil
		return nil, err
	}
	return n, nil
}

// poison records the first configuration error so the enclosing transition
// fails even when the entry point ignores the Super return value.
func (e *Engine) poison(err error) {
	if e.configErr == nil {
		e.configErr = err
	}
}

// HandleReceive dispatches a message: exact-type handler on the current
// behavior, then its catch-all, then the super chain; at chain exhaustion
// the unhandled-receive callback decides, defaulting to an
// UnhandledMessageError.
func (e *Engine) HandleReceive(ctx context.Context, msg any) (any, error) {
	if e.current == nil {
		return nil, fmt.Errorf("%w: cannot receive %s", ErrNotInitialized, msgTypeOf(msg))
	}

	mt := msgTypeOf(msg)
	for n := e.current; n != nil; n = n.super {
		if h, ok := n.receivers[mt]; ok {
			e.metrics.MessageDispatched(e.actorType, true)
			return h(ctx, msg)
		}
		if n.defaultReceiver != nil {
			e.metrics.MessageDispatched(e.actorType, true)
			return n.defaultReceiver(ctx, msg)
		}
	}

	e.metrics.MessageDispatched(e.actorType, false)
	if e.unhandledReceive != nil {
		return e.unhandledReceive(ctx, msg)
	}
	return nil, &UnhandledMessageError{ActorType: e.actorType, Behavior: e.current.name, Message: msg}
}

// HandleReminder dispatches a fired reminder the same way HandleReceive
// dispatches a message, keyed by reminder id.
func (e *Engine) HandleReminder(ctx context.Context, id string) error {
	if e.current == nil {
		return fmt.Errorf("%w: cannot handle reminder %q", ErrNotInitialized, id)
	}

	for n := e.current; n != nil; n = n.super {
		if h, ok := n.reminders[id]; ok {
			e.metrics.ReminderDispatched(e.actorType, true)
			return h(ctx, id)
		}
		if n.defaultReminder != nil {
			e.metrics.ReminderDispatched(e.actorType, true)
			return n.defaultReminder(ctx, id)
		}
	}

	e.metrics.ReminderDispatched(e.actorType, false)
	if e.unhandledReminder != nil {
		return e.unhandledReminder(ctx, id)
	}
	return &UnhandledReminderError{ActorType: e.actorType, Behavior: e.current.name, ID: id}
}

// HandleActivate runs every activate hook along the super chain,
// outermost-first. Lifecycle hooks are additive, so unlike message dispatch
// the walk never stops at the first node that has hooks. A no-op when no
// behavior is set yet.
func (e *Engine) HandleActivate(ctx context.Context) error {
	if e.current == nil {
		return nil
	}
	t := Transition{To: e.current.name}

	var nodes []*node
	for n := e.current; n != nil; n = n.super {
		nodes = append(nodes, n)
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		for _, h := range nodes[i].onActivate {
			if err := h(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleDeactivate runs every deactivate hook along the super chain,
// current-first.
func (e *Engine) HandleDeactivate(ctx context.Context) error {
	if e.current == nil {
		return nil
	}
	t := Transition{From: e.current.name}

	for n := e.current; n != nil; n = n.super {
		for _, h := range n.onDeactivate {
			if err := h(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnUnhandledReceive installs the actor-wide fallback for messages no
// behavior in the chain handles. It may be set at most once and never while
// a transition is in progress.
func (e *Engine) OnUnhandledReceive(h ReceiveHandler) error {
	if err := e.callbackSettable("unhandled-receive", e.unhandledReceive != nil); err != nil {
		return err
	}
	e.unhandledReceive = h
	return nil
}

// OnUnhandledReminder installs the actor-wide fallback for reminders no
// behavior in the chain handles.
func (e *Engine) OnUnhandledReminder(h ReminderHandler) error {
	if err := e.callbackSettable("unhandled-reminder", e.unhandledReminder != nil); err != nil {
		return err
	}
	e.unhandledReminder = h
	return nil
}

// OnBecome installs the engine-level notification invoked after every
// committed transition, with the new and old behavior names.
func (e *Engine) OnBecome(f func(to, from string)) error {
	if err := e.callbackSettable("become", e.transitioned != nil); err != nil {
		return err
	}
	e.transitioned = f
	return nil
}

func (e *Engine) callbackSettable(kind string, set bool) error {
	if e.inProgress != nil {
		return fmt.Errorf("%w: cannot set %s callback", ErrTransitionInProgress, kind)
	}
	if set {
		return fmt.Errorf("%w: %s", ErrCallbackAlreadySet, kind)
	}
	return nil
}
