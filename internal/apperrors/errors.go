package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the transport layer can map it
// to a status code without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindInsufficientFunds
	KindOracleUnavailable
)

// String returns a stable name for the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindOracleUnavailable:
		return "oracle_unavailable"
	default:
		return "unknown"
	}
}

// Error is an application error carrying a Kind
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the error classification
func (e *Error) Kind() Kind {
	return e.kind
}

// InvalidArgument reports a malformed or out-of-range input
func InvalidArgument(msg string) error {
	return &Error{kind: KindInvalidArgument, msg: msg}
}

// NotFound reports a missing record
func NotFound(msg string) error {
	return &Error{kind: KindNotFound, msg: msg}
}

// Conflict reports a duplicate record, wrong state, or ownership violation
func Conflict(msg string) error {
	return &Error{kind: KindConflict, msg: msg}
}

// InsufficientFunds reports a balance below the requested debit
func InsufficientFunds(msg string) error {
	return &Error{kind: KindInsufficientFunds, msg: msg}
}

// OracleUnavailable wraps an oracle transport or contract failure. It is
// internal only: callers convert it to a documented default verdict and it
// never reaches an API response.
func OracleUnavailable(msg string, err error) error {
	return &Error{kind: KindOracleUnavailable, msg: msg, err: err}
}

// KindOf extracts the Kind from an error chain
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUnknown
}

// IsKind reports whether any error in the chain has the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
