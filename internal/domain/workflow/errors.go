package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the
	// current state, either because no edge carries it or its guard is false
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknownVariant is returned when a case carries an unrecognized variant
	ErrUnknownVariant = errors.New("unknown case variant")
)
