// Package errors provides error handling for promptvc.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, error wrapping, and PII-safe formatting, plus the sentinel errors
// used to classify failures at the request boundary.
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
package errors

import (
	"strings"

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

// Sentinel errors for request-boundary classification.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrUnauthorized indicates the request lacks proper authentication
	ErrUnauthorized = New("unauthorized")

	// ErrForbidden indicates the request is not allowed for this user
	ErrForbidden = New("forbidden")

	// ErrConflict indicates a resource conflict (e.g., duplicate tag)
	ErrConflict = New("resource conflict")

	// ErrTimeout indicates an operation exceeded its deadline
	ErrTimeout = New("operation timed out")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsConflictError checks if an error is or wraps ErrConflict
func IsConflictError(err error) bool {
	return err != nil && Is(err, ErrConflict)
}

// WrapInvalidRequest wraps an error as an invalid-request error with context
func WrapInvalidRequest(err error, context string) error {
	return Wrap(Wrap(ErrInvalidRequest, err.Error()), context)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// ClassifyMessage maps legacy message text onto a sentinel error.
//
// The original persistence layer reported failures as bare strings, and
// callers matched substrings to decide the HTTP status. Errors that already
// carry a sentinel pass through unchanged; otherwise the known substrings
// are mapped for behavioral compatibility. New store code should wrap
// sentinels directly instead of relying on this.
func ClassifyMessage(err error) error {
	if err == nil {
		return nil
	}
	if IsAny(err, ErrNotFound, ErrInvalidRequest, ErrUnauthorized, ErrForbidden, ErrConflict, ErrTimeout) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return Wrap(ErrNotFound, msg)
	case strings.Contains(msg, "Not authorized"):
		return Wrap(ErrForbidden, msg)
	case strings.Contains(msg, "already exists"):
		return Wrap(ErrConflict, msg)
	}
	return err
}
