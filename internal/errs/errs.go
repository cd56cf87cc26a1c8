package errs

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates a client or service was constructed with
// invalid settings. It is never retried; the operator has to fix the config.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Reason)
}

// NewConfiguration builds a ConfigurationError for the given component.
func NewConfiguration(component, reason string) error {
	return &ConfigurationError{Component: component, Reason: reason}
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// TransportError wraps a network, timeout, or upstream-server failure.
// The scheduler retries a stage run when it fails with a TransportError;
// anything else waits for the next scheduled run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError for the given operation.
func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ConflictError indicates a store uniqueness constraint rejected a write.
// Field names the violated column (e.g. "tmdb_id").
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %v", e.Field, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Conflict wraps err as a ConflictError on the given field.
func Conflict(field string, err error) error {
	return &ConflictError{Field: field, Err: err}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
