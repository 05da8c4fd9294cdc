// Package fferr defines the closed error taxonomy shared across fff's
// subsystems. Every fallible operation returns one of these kinds (or nil),
// never a bare error from an internal dependency.
package fferr

import (
	"errors"
	"fmt"
)

// Kind is one of the seven taxonomy members from the error handling design.
type Kind string

const (
	InvalidArgument  Kind = "invalid_argument"
	NotFound         Kind = "not_found"
	PermissionDenied Kind = "permission_denied"
	StoreUnavailable Kind = "store_unavailable"
	ScanFailed       Kind = "scan_failed"
	Cancelled        Kind = "cancelled"
	Internal         Kind = "internal"
)

// Error wraps an underlying cause with a Kind and a short human-readable
// message. It satisfies errors.Unwrap so callers can use errors.Is/As
// against both the Kind (via Is) and the wrapped cause.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is(err, fferr.New(SomeKind, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Underlying == nil {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New constructs an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Underlying: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: cause}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Internal for errors that
// never passed through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}

// Recover converts a recovered panic value into an *Error of kind Internal.
// Intended to be called from a deferred recover() at every worker-thread
// boundary (scanner goroutines, watcher goroutine, query pool workers).
func Recover(r any) *Error {
	return Newf(Internal, "panic recovered: %v", r)
}
