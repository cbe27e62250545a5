package domain

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// transientError tags an error as a recoverable infrastructure failure.
// Adapters wrap connectivity problems with Transient so the worker can
// requeue the job instead of marking it failed.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is expected to resolve on retry.
// Besides explicitly tagged errors, a small policy table of well-known
// connectivity failures is recognized. The table is deliberately narrow;
// extend it as new transient conditions show up in production (backend
// rate limits, DNS flaps, ...).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}
