// Package timeutil abstracts wall-clock time and timer scheduling so that
// the checkout and fulfillment machines are deterministic under test.
package timeutil

import "time"

type Timer interface {
	// Stop prevents the callback from firing. Reports whether it was still
	// pending.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	// AfterFunc runs f on its own goroutine after d elapses.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the production clock backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
