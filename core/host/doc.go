// Package host is the minimal hosting runtime for behavior-driven actors.
//
// A [Host] owns actor instances keyed by string id. It activates an instance
// on first use (factory, behavior engine construction, Setup, HandleActivate),
// delivers messages and reminders as non-overlapping turns per key, and runs
// HandleDeactivate as the final turn when the instance is deactivated or the
// host shuts down. Different keys execute in parallel; one key never does.
// That is the single-threaded-per-actor guarantee the behavior engine
// requires.
//
//	behavior.MustRegister[*Account]()
//
//	h := host.New(func(key string) (host.Actor, error) {
//	    return &Account{}, nil
//	}, host.Options{})
//	defer h.Shutdown(context.Background())
//
//	balance, err := h.Ask(ctx, "acc-1", Balance{})
package host
