// Package errors provides error handling for warden.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints for operator-facing messages
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
//	if errors.Is(err, errors.ErrRollbackInfrastructure) {
//	    // the stable release could not be fetched or installed
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
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	WithSecondary = crdb.WithSecondaryError
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the supervision cycle.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrRollbackInfrastructure indicates the stable release could not be
	// fetched or swapped into place. The fallback never ran; this is
	// distinct from "rolled back and the fallback also failed".
	ErrRollbackInfrastructure = New("rollback infrastructure failure")

	// ErrRollbackDisabled indicates rollback was requested while the
	// rollback safety net is switched off.
	ErrRollbackDisabled = New("rollback is disabled")

	// ErrEmptyRelease indicates a fetched stable archive extracted to
	// nothing usable and must not replace the active program directory.
	ErrEmptyRelease = New("stable release extracted to an empty tree")
)

// IsRollbackInfrastructure checks if an error is or wraps ErrRollbackInfrastructure.
func IsRollbackInfrastructure(err error) bool {
	return err != nil && Is(err, ErrRollbackInfrastructure)
}

// WrapRollbackInfrastructure marks err as a rollback infrastructure failure
// with context, preserving the sentinel for errors.Is checks.
func WrapRollbackInfrastructure(err error, context string) error {
	return Wrap(WithSecondary(ErrRollbackInfrastructure, err), context)
}
