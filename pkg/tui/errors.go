package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOptions is returned when a relational field never produced options.
	ErrNoOptions = errors.New("tui: no options available")
	// ErrTooManyAttempts is returned when the form keeps failing.
	ErrTooManyAttempts = errors.New("tui: too many attempts")
)
