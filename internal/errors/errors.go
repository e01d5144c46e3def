// Package errors defines the error taxonomy shared by the transport,
// address resolution, and role loops.
//
// Two families exist: NetworkError for anything that touched a socket or
// the interface table, and ValidationError for inputs that could not be
// made sense of. Receive timeouts are NetworkErrors that additionally
// report Timeout() == true; callers treat them as control flow, not
// failures (see IsTimeout).
package errors

import (
	"errors"
	"fmt"
	"net"
)

// NetworkError wraps a failed network operation with enough context to
// produce an actionable diagnostic.
type NetworkError struct {
	Operation string // what was being attempted, e.g. "join group"
	Err       error  // underlying error, may be nil for synthesized failures
	Details   string // human-readable specifics (addresses, sizes, names)
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Details)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the wrapped error is a network timeout.
func (e *NetworkError) Timeout() bool {
	var nerr net.Error
	if errors.As(e.Err, &nerr) {
		return nerr.Timeout()
	}
	return false
}

// ValidationError describes an input value that failed validation,
// keeping both the offending value and what was expected of it.
type ValidationError struct {
	Field   string // which input, e.g. "multicast address"
	Value   string // the value as given by the operator
	Message string // why it was rejected
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// IsTimeout reports whether err represents an expected receive timeout.
// Timeouts are the normal idle outcome of a polling receive loop and must
// never be surfaced to the operator as failures.
func IsTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
