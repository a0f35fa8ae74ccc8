package domain

import "errors"

var (
	// ErrEmptyCart guards the Review -> Security transition; a zero-weight
	// cart must never reach the weight check.
	ErrEmptyCart = errors.New("empty cart")

	// ErrVerificationPending means payment was attempted before the weight
	// check resolved.
	ErrVerificationPending = errors.New("verification pending")

	// ErrInvalidTransition is returned for any action submitted in a state
	// that does not define it. Callers treat it as a no-op.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrMissingContext means a workflow was started without its required
	// inputs (no cart, no shop/destination coordinates).
	ErrMissingContext = errors.New("missing context")

	// ErrSessionClosed is returned by actions on a cancelled session.
	ErrSessionClosed = errors.New("session closed")

	ErrNotFound = errors.New("not found")
)
