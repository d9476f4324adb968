package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConflict is returned when a write would make two approved bookings or
	// fixed schedules occupy the same room period.
	ErrConflict = errors.New("persistence: slot conflict")
	// ErrStaleState is returned when a status transition finds the record in a
	// different state than expected.
	ErrStaleState = errors.New("persistence: stale state")
	// ErrConstraintViolation is returned when a record breaks a schema constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
