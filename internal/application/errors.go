package application

import (
	"errors"
	"fmt"

	"github.com/example/lab-booking/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when an identical record is already present,
	// such as a second pending request for the same slot.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when requested periods are already occupied.
	ErrConflict = errors.New("application: periods unavailable")
	// ErrBusy is returned when the submission lock for a slot could not be obtained.
	ErrBusy = errors.New("application: slot busy")
	// ErrInvalidState is returned when a booking is not in the status an operation requires.
	ErrInvalidState = errors.New("application: invalid booking state")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string

	cause error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// Unwrap exposes the engine error that produced the validation failure, if any.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return v.cause
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// addCause records a field error caused by err and keeps err matchable.
func (v *ValidationError) addCause(field string, err error) {
	v.add(field, err.Error())
	if v.cause == nil {
		v.cause = err
	}
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
	if v.cause == nil {
		v.cause = other.cause
	}
}

// SlotConflictError reports which requested periods are occupied. It matches
// ErrConflict with errors.Is.
type SlotConflictError struct {
	RoomID  string
	Date    scheduler.Date
	Periods scheduler.PeriodSet
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%s: room %s on %s periods %s", ErrConflict, e.RoomID, e.Date, e.Periods)
}

// Is reports whether target is ErrConflict.
func (e *SlotConflictError) Is(target error) bool {
	return target == ErrConflict
}
