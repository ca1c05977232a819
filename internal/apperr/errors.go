// Package apperr defines the sentinel errors shared across dailycanvas.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotReady means an interception target does not exist yet.
	ErrNotReady = errors.New("not ready")
	// ErrInapplicable means a command's preconditions are unmet.
	ErrInapplicable = errors.New("not applicable")
	// ErrInvariant marks a broken host invariant; the triggering operation aborts.
	ErrInvariant = errors.New("invariant violation")
	// ErrUnrecognizedSurface means a behavior surface does not have the expected shape.
	ErrUnrecognizedSurface = errors.New("unrecognized behavior surface")
)
