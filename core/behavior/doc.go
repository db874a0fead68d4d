// Package behavior implements the behavior engine for virtual actors: a
// hierarchical, runtime-reconfigurable state machine that decides how one
// actor instance handles messages, reminders and lifecycle events, and lets
// the actor switch its own handling logic while it runs.
//
// # Declaring behaviors
//
// A behavior is a method on the actor type that configures a handler table
// through the [Builder] it receives:
//
//	type Account struct {
//	    behavior.Base
//	    balance int64
//	}
//
//	func (a *Account) Active(b *behavior.Builder) {
//	    _ = b.Super("Shared")
//	    b.OnReceive(
//	        behavior.HandleMsg[Deposit](func(ctx context.Context, d Deposit) error {
//	            a.balance += d.Amount
//	            return nil
//	        }),
//	    )
//	    b.OnReminder("settle", a.settle)
//	}
//
// The actor type is scanned once at startup:
//
//	behavior.MustRegister[*Account]()
//
// # Switching behaviors
//
// Each instance gets its own [Engine]. The first behavior is set with
// [Engine.Initial]; handlers switch it with [Engine.Become]:
//
//	eng, err := behavior.New(acc, behavior.Options{})
//	...
//	err = eng.Initial("Active")
//
// A behavior may declare a fallback via [Builder.Super]; unhandled input
// walks the resulting chain before reaching the engine-level callbacks
// installed with [Engine.OnUnhandledReceive] and [Engine.OnUnhandledReminder].
//
// # Concurrency
//
// An Engine is deliberately lock-free and must only be called from one
// logical thread of control at a time, the turn-based guarantee the hosting
// runtime provides (see core/host). The registry, in contrast, serves
// concurrent lookups once the startup registration phase is over.
package behavior
