// Package errors provides error handling for noiseq.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for operator-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrInvalidTransition) {
//	    // handle a worker-logic bug
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the scheduling core. Use these with errors.Is() and
// wrap them with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested job or station does not exist.
	ErrNotFound = New("not found")

	// ErrConfigInvalid indicates a required configuration key is missing or
	// outside its allowed domain. Generation and claim setup fail on it;
	// individual claims never do.
	ErrConfigInvalid = New("configuration invalid")

	// ErrInvalidTransition indicates an operation was attempted on a job that
	// is not in the required source state (e.g. completing a TODO job). This
	// is surfaced rather than masked so bugs in worker logic are detectable.
	ErrInvalidTransition = New("invalid job state transition")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsConfigInvalid checks if an error is or wraps ErrConfigInvalid.
func IsConfigInvalid(err error) bool {
	return err != nil && Is(err, ErrConfigInvalid)
}

// IsInvalidTransition checks if an error is or wraps ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	return err != nil && Is(err, ErrInvalidTransition)
}

// NewConfigError creates an ErrConfigInvalid with a formatted message.
func NewConfigError(format string, args ...interface{}) error {
	return Wrap(ErrConfigInvalid, Newf(format, args...).Error())
}
