package behavior

import "context"

type (
	// ReceiveHandler handles one message delivered to the actor. The returned
	// value is the reply (nil for fire-and-forget messages).
	ReceiveHandler func(ctx context.Context, msg any) (any, error)

	// ReminderHandler handles one fired reminder.
	ReminderHandler func(ctx context.Context, id string) error

	// Hook is a lifecycle callback. The Transition describes the behavior
	// switch the hook runs for; on host-driven activation/deactivation the
	// unused side is empty.
	Hook func(ctx context.Context, t Transition) error

	// Transition describes a behavior switch.
	Transition struct {
		From string
		To   string
	}
)

// node is one named behavior state: its handler tables, its lifecycle hooks
// and its optional super delegate. Nodes are mutated only through a Builder
// while the behavior's entry point executes; afterwards they are frozen.
type node struct {
	name   string
	super  *node
	frozen bool

	receivers       map[string]ReceiveHandler
	defaultReceiver ReceiveHandler

	reminders       map[string]ReminderHandler
	defaultReminder ReminderHandler

	onActivate   []Hook
	onDeactivate []Hook
	onBecome     []Hook
	onUnbecome   []Hook
}

func newNode(name string) *node {
	return &node{
		name:      name,
		receivers: make(map[string]ReceiveHandler),
		reminders: make(map[string]ReminderHandler),
	}
}

// inChain reports whether the chain headed by n contains a node called name,
// returning that node.
func (n *node) inChain(name string) *node {
	for c := n; c != nil; c = c.super {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Builder configures the behavior node currently being entered. A Builder is
// handed to the behavior's entry point and is only valid until that entry
// point returns; using it afterwards panics.
type Builder struct {
	engine *Engine
	node   *node
}

func (b *Builder) guard() {
	if b.node.frozen {
		panic("behavior: builder for " + b.node.name + " used after its entry point returned")
	}
}

// OnReceive applies typed handler registrations created with Handle or
// HandleMsg.
func (b *Builder) OnReceive(regs ...Registration) {
	b.guard()
	for _, r := range regs {
		r(b)
	}
}

// OnReceiveType registers a handler for an exact message discriminator.
// Registering the same type again replaces the previous handler.
func (b *Builder) OnReceiveType(msgType string, h ReceiveHandler) {
	b.guard()
	b.node.receivers[msgType] = h
}

// OnReceiveAny registers the catch-all message handler for this behavior.
func (b *Builder) OnReceiveAny(h ReceiveHandler) {
	b.guard()
	b.node.defaultReceiver = h
}

// OnReminder registers a handler for the reminder with the given id.
func (b *Builder) OnReminder(id string, h ReminderHandler) {
	b.guard()
	b.node.reminders[id] = h
}

// OnReminderAny registers the catch-all reminder handler for this behavior.
func (b *Builder) OnReminderAny(h ReminderHandler) {
	b.guard()
	b.node.defaultReminder = h
}

// OnActivate appends an activation hook. Hooks accumulate and run in
// registration order.
func (b *Builder) OnActivate(h Hook) {
	b.guard()
	b.node.onActivate = append(b.node.onActivate, h)
}

// OnDeactivate appends a deactivation hook.
func (b *Builder) OnDeactivate(h Hook) {
	b.guard()
	b.node.onDeactivate = append(b.node.onDeactivate, h)
}

// OnBecome appends a hook that runs after a transition commits to this
// behavior.
func (b *Builder) OnBecome(h Hook) {
	b.guard()
	b.node.onBecome = append(b.node.onBecome, h)
}

// OnUnbecome appends a hook that runs when this behavior is being left.
func (b *Builder) OnUnbecome(h Hook) {
	b.guard()
	b.node.onUnbecome = append(b.node.onUnbecome, h)
}

// Super declares the fallback behavior consulted when this behavior has no
// handler for a message or reminder. It may be declared at most once and only
// while the entry point runs. A failed Super poisons the whole transition:
// the enclosing Initial or Become returns the error.
func (b *Builder) Super(name string) error {
	b.guard()
	return b.engine.attachSuper(b.node, name)
}
