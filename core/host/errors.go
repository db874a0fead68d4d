package host

import "errors"

var (
	ErrClosed           = errors.New("host closed")
	ErrNotActivated     = errors.New("actor is not activated")
	ErrReminderExists   = errors.New("reminder already registered")
	ErrReminderNotFound = errors.New("reminder not registered")
)
