package scheduler

import "errors"

var (
	// ErrInvalidPeriod is returned when a period is outside the configured range
	// or a required period set is empty.
	ErrInvalidPeriod = errors.New("scheduler: invalid period")
	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("scheduler: invalid date range")
)
