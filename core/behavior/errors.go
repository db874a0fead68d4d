package behavior

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Transition protocol errors
	ErrAlreadyInitialized   = errors.New("initial behavior already set")
	ErrNotInitialized       = errors.New("no behavior set")
	ErrTransitionInProgress = errors.New("behavior transition already in progress")
	ErrSelfTransition       = errors.New("cannot become the current behavior")
	ErrSuperAlreadySet      = errors.New("super behavior already set")
	ErrBehaviorNotFound     = errors.New("behavior not found")

	// Engine callback errors
	ErrCallbackAlreadySet = errors.New("engine callback already set")

	// Registry errors
	ErrTypeAlreadyRegistered = errors.New("actor type already registered")
	ErrTypeNotRegistered     = errors.New("actor type is not registered")
	ErrInvalidEntryPoint     = errors.New("invalid behavior entry point")
)

// CycleError reports a Super declaration that would close a loop in the
// super chain being configured.
type CycleError struct {
	Behavior string   // the offending super name
	Chain    []string // the chain under configuration, ending with the repeated name
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic super declaration: %q is already part of the chain %s",
		e.Behavior, strings.Join(e.Chain, " <- "))
}

// UnhandledMessageError is returned by HandleReceive when no handler exists
// anywhere in the super chain and no unhandled-receive callback is installed.
type UnhandledMessageError struct {
	ActorType string
	Behavior  string
	Message   any
}

func (e *UnhandledMessageError) Error() string {
	return fmt.Sprintf("actor %s in behavior %q cannot handle message: msg_type=%s msg=%+v",
		e.ActorType, e.Behavior, msgTypeOf(e.Message), e.Message)
}

// UnhandledReminderError is the reminder counterpart of UnhandledMessageError.
type UnhandledReminderError struct {
	ActorType string
	Behavior  string
	ID        string
}

func (e *UnhandledReminderError) Error() string {
	return fmt.Sprintf("actor %s in behavior %q cannot handle reminder %q",
		e.ActorType, e.Behavior, e.ID)
}
