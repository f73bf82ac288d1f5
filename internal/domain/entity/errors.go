package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures so callers can react without
// string-matching messages.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindUnreadable            ErrorKind = "unreadable"
	KindUnsupportedCodec      ErrorKind = "unsupported_codec"
	KindInvalidRange          ErrorKind = "invalid_range"
	KindSeekOutOfRange        ErrorKind = "seek_out_of_range"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindBackendFailure        ErrorKind = "backend_failure"
)

// Error is a structured failure carrying its kind and a human-readable
// reason. All engine failures surface as one of these.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a structured analysis error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a structured analysis error.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an
// analysis error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an analysis error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
