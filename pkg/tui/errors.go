package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalid is returned when values are still invalid after the last
	// correction round.
	ErrInvalid = errors.New("tui: form is still invalid")
)
