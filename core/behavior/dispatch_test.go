package behavior

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	rootMsg struct{}
	leafMsg struct{}
)

// chained exercises a three-level super chain: Leaf -> Mid -> Root.
type chained struct {
	Base
	builds    map[string]int // entry point invocations per behavior
	rootCalls int
	hooks     []string
}

func newChained() *chained {
	return &chained{builds: make(map[string]int)}
}

func (a *chained) hook(tag string) Hook {
	return func(ctx context.Context, t Transition) error {
		a.hooks = append(a.hooks, tag)
		return nil
	}
}

func (a *chained) Root(b *Builder) {
	a.builds["Root"]++
	b.OnReceive(Handle[rootMsg](func(ctx context.Context, m rootMsg) (any, error) {
		a.rootCalls++
		return "root", nil
	}))
	b.OnReminder("tick", func(ctx context.Context, id string) error {
		a.hooks = append(a.hooks, "Root.tick")
		return nil
	})
	b.OnActivate(a.hook("Root.activate"))
	b.OnDeactivate(a.hook("Root.deactivate"))
}

func (a *chained) Mid(b *Builder) {
	a.builds["Mid"]++
	_ = b.Super("Root")
	b.OnActivate(a.hook("Mid.activate"))
	b.OnDeactivate(a.hook("Mid.deactivate"))
}

func (a *chained) Leaf(b *Builder) {
	a.builds["Leaf"]++
	_ = b.Super("Mid")
	b.OnReceive(Handle[leafMsg](func(ctx context.Context, m leafMsg) (any, error) {
		return "leaf", nil
	}))
	b.OnActivate(a.hook("Leaf.activate"))
	b.OnDeactivate(a.hook("Leaf.deactivate"))
}

// Side reuses Root, which is an ancestor of the Leaf chain.
func (a *chained) Side(b *Builder) {
	a.builds["Side"]++
	_ = b.Super("Root")
}

func TestDispatch_falls_back_through_super_chain(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Leaf"))

	// no handler on Leaf or Mid, one on Root: it runs exactly once
	res, err := eng.HandleReceive(testContext(t), rootMsg{})
	require.NoError(t, err)
	require.Equal(t, "root", res)
	require.Equal(t, 1, a.rootCalls)

	// handled on the current node without consulting the chain
	res, err = eng.HandleReceive(testContext(t), leafMsg{})
	require.NoError(t, err)
	require.Equal(t, "leaf", res)
	require.Equal(t, 1, a.rootCalls)
}

func TestDispatch_unhandled_names_actor_and_behavior(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Leaf"))

	_, err := eng.HandleReceive(testContext(t), ping{Seq: 1})
	var unhandled *UnhandledMessageError
	require.ErrorAs(t, err, &unhandled)
	require.Equal(t, "Leaf", unhandled.Behavior)
	require.Equal(t, eng.ActorType(), unhandled.ActorType)
	require.Equal(t, ping{Seq: 1}, unhandled.Message)
}

func TestDispatch_reminder_falls_back_through_chain(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Leaf"))

	require.NoError(t, eng.HandleReminder(testContext(t), "tick"))
	require.Equal(t, []string{"Root.tick"}, a.hooks)
}

func TestDispatch_activate_runs_all_hooks_outermost_first(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Leaf"))

	require.NoError(t, eng.HandleActivate(testContext(t)))
	require.Equal(t, []string{"Root.activate", "Mid.activate", "Leaf.activate"}, a.hooks)

	a.hooks = nil
	require.NoError(t, eng.HandleDeactivate(testContext(t)))
	require.Equal(t, []string{"Leaf.deactivate", "Mid.deactivate", "Root.deactivate"}, a.hooks)
}

func TestDispatch_lifecycle_noop_before_initial(t *testing.T) {
	setup[*chained](t)

	eng := newTestEngine(t, newChained())
	require.NoError(t, eng.HandleActivate(testContext(t)))
	require.NoError(t, eng.HandleDeactivate(testContext(t)))
}

func TestSuper_reuses_ancestor_of_previous_current(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Leaf"))
	require.Equal(t, 1, a.builds["Root"])

	// Side declares Super("Root"); Root is an ancestor of the old chain and
	// must be reused, not rebuilt
	require.NoError(t, eng.Become(testContext(t), "Side"))
	require.Equal(t, 1, a.builds["Root"])

	// the reused node's handlers remain callable without re-declaration
	res, err := eng.HandleReceive(testContext(t), rootMsg{})
	require.NoError(t, err)
	require.Equal(t, "root", res)
}

func TestSuper_builds_fresh_without_previous_chain(t *testing.T) {
	setup[*chained](t)

	a := newChained()
	eng := newTestEngine(t, a)

	// fresh engine: Initial("Side") has no previous current, Root is built
	require.NoError(t, eng.Initial("Side"))
	require.Equal(t, 1, a.builds["Root"])

	// Become("Mid"): Root is an ancestor of current Side, reused again
	require.NoError(t, eng.Become(testContext(t), "Mid"))
	require.Equal(t, 1, a.builds["Root"])
}

// tangled declares a cyclic super relationship.
type tangled struct {
	Base
}

func (a *tangled) Yin(b *Builder)  { _ = b.Super("Yang") }
func (a *tangled) Yang(b *Builder) { _ = b.Super("Yin") }
func (a *tangled) Self(b *Builder) { _ = b.Super("Self") }

func TestSuper_cycle_is_rejected(t *testing.T) {
	setup[*tangled](t)

	eng := newTestEngine(t, &tangled{})
	err := eng.Initial("Yin")
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	require.Equal(t, "Yin", cycle.Behavior)
	require.Equal(t, []string{"Yin", "Yang", "Yin"}, cycle.Chain)
	require.Equal(t, "", eng.Current())
}

func TestSuper_self_cycle_is_rejected(t *testing.T) {
	setup[*tangled](t)

	eng := newTestEngine(t, &tangled{})
	var cycle *CycleError
	require.ErrorAs(t, eng.Initial("Self"), &cycle)
	require.Equal(t, []string{"Self", "Self"}, cycle.Chain)
}

// overlapping has both a specific and a catch-all handler, plus a behavior
// whose catch-all shadows a super's specific handler.
type overlapping struct {
	Base
	rootCalls int
}

func (a *overlapping) Root(b *Builder) {
	b.OnReceive(Handle[rootMsg](func(ctx context.Context, m rootMsg) (any, error) {
		a.rootCalls++
		return "root", nil
	}))
}

func (a *overlapping) Both(b *Builder) {
	b.OnReceive(Handle[ping](func(ctx context.Context, p ping) (any, error) {
		return "specific", nil
	}))
	b.OnReceiveAny(func(ctx context.Context, msg any) (any, error) {
		return "catchall", nil
	})
}

func (a *overlapping) Shadow(b *Builder) {
	_ = b.Super("Root")
	b.OnReceiveAny(func(ctx context.Context, msg any) (any, error) {
		return "shadow", nil
	})
}

func TestDispatch_specific_beats_catchall(t *testing.T) {
	setup[*overlapping](t)

	eng := newTestEngine(t, &overlapping{})
	require.NoError(t, eng.Initial("Both"))

	res, err := eng.HandleReceive(testContext(t), ping{Seq: 1})
	require.NoError(t, err)
	require.Equal(t, "specific", res)

	res, err = eng.HandleReceive(testContext(t), rootMsg{})
	require.NoError(t, err)
	require.Equal(t, "catchall", res)
}

func TestDispatch_current_catchall_beats_super_specific(t *testing.T) {
	setup[*overlapping](t)

	a := &overlapping{}
	eng := newTestEngine(t, a)
	require.NoError(t, eng.Initial("Shadow"))

	res, err := eng.HandleReceive(testContext(t), rootMsg{})
	require.NoError(t, err)
	require.Equal(t, "shadow", res)
	require.Zero(t, a.rootCalls)
}

type balanceQuery struct{}

// typedReply answers a request with a typed pointer result.
type typedReply struct {
	Base
}

func (a *typedReply) Default(b *Builder) {
	b.OnReceive(HandleRequest(func(ctx context.Context, q balanceQuery) (*int, error) {
		n := 42
		return &n, nil
	}))
}

func TestDispatch_typed_request_response(t *testing.T) {
	setup[*typedReply](t)

	eng := newTestEngine(t, &typedReply{})
	require.NoError(t, eng.Initial("Default"))

	res, err := eng.HandleReceive(testContext(t), balanceQuery{})
	require.NoError(t, err)
	require.Equal(t, 42, *res.(*int))
}

// doubled declares Super twice and leaks its builder.
type doubled struct {
	Base
	superErr error
	leaked   *Builder
}

func (a *doubled) Root(b *Builder) {}

func (a *doubled) Greedy(b *Builder) {
	_ = b.Super("Root")
	a.superErr = b.Super("Root")
	a.leaked = b
}

func TestSuper_set_at_most_once(t *testing.T) {
	setup[*doubled](t)

	a := &doubled{}
	eng := newTestEngine(t, a)

	// the second Super poisons the whole transition
	require.ErrorIs(t, eng.Initial("Greedy"), ErrSuperAlreadySet)
	require.ErrorIs(t, a.superErr, ErrSuperAlreadySet)
	require.Equal(t, "", eng.Current())
}

func TestBuilder_frozen_after_entry_point(t *testing.T) {
	setup[*doubled](t)

	a := &doubled{}
	eng := newTestEngine(t, a)
	_ = eng.Initial("Greedy")
	require.NotNil(t, a.leaked)

	require.Panics(t, func() {
		a.leaked.OnReceiveAny(func(ctx context.Context, msg any) (any, error) { return nil, nil })
	})
	require.Panics(t, func() { _ = a.leaked.Super("Root") })
}
