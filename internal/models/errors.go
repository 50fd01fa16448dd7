package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input or content.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState marks an operation against a session in the wrong state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrNotFound marks a reference to a session or event that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by stores when a guarded write lost a race.
	ErrConflict = errors.New("revision conflict")
)

// ErrChoicePending rejects a choice while another one on the same session is in flight.
var ErrChoicePending = fmt.Errorf("%w: a choice is already being resolved", ErrInvalidState)
