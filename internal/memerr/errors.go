// Package memerr defines the error taxonomy shared by all memory tiers.
//
// Leaf stores surface STORE_UNAVAILABLE and VALIDATION_ERROR directly; the
// facade aggregates per-tier outcomes and uses PARTIAL_FAILURE when a
// multi-tier operation only partly succeeded. NOT_FOUND is reserved for
// operations where absence is an error — plain Get calls return "absent"
// without an error.
package memerr

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used across the memory tiers.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeConflict         = "CONFLICT"
	CodePartialFailure   = "PARTIAL_FAILURE"
	CodeTimeout          = "TIMEOUT"
)

// Error is a structured error carrying the store and operation that failed.
type Error struct {
	Store   string // tier name, e.g. "short_term", "semantic"
	Op      string // operation, e.g. "Set", "RecordBehavior"
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s.%s: %s: %s: %v", e.Store, e.Op, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s.%s: %s: %s", e.Store, e.Op, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a structured error without a cause.
func New(store, op, code, message string) *Error {
	return &Error{Store: store, Op: op, Code: code, Message: message}
}

// Wrap creates a structured error around an underlying cause. Context
// cancellation and deadline expiry are reported as TIMEOUT regardless of the
// requested code so callers can distinguish "gave up" from "backend down".
func Wrap(store, op, code string, cause error) *Error {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		code = CodeTimeout
	}
	return &Error{Store: store, Op: op, Code: code, Message: "operation failed", Cause: cause}
}

// Validation is a shorthand for parameter errors.
func Validation(store, op, message string) *Error {
	return New(store, op, CodeValidation, message)
}

// Unavailable is a shorthand for backend transport failures.
func Unavailable(store, op string, cause error) *Error {
	return Wrap(store, op, CodeStoreUnavailable, cause)
}

// CodeOf extracts the error code from err, or empty if err is not a *Error.
func CodeOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
