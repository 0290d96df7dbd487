package errors

import (
	"errors"
	"fmt"
)

// Common error kinds used across the stepflow library

var (
	// ErrInvalidSchedule indicates malformed time bounds or an empty recurrence
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrDuplicateName indicates that a named entry with the same name is live
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound indicates that the addressed entry does not exist
	ErrNotFound = errors.New("entry not found")

	// ErrExhausted signals that no future occurrence exists for a schedule.
	// It is internal to trigger computation: the engine translates it into
	// entry retirement and never returns it from an operation.
	ErrExhausted = errors.New("schedule exhausted")
)

// ValidationError describes a schedule or configuration field rejected at
// registration time. It unwraps to ErrInvalidSchedule so callers can match
// the kind with errors.Is without inspecting the field detail.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Module: module, Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSchedule
}

// IsNotFound returns true if the error indicates a missing entry
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejected returns true if the error indicates a registration that was
// refused without mutating any state
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidSchedule) || errors.Is(err, ErrDuplicateName)
}
