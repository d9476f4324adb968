package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/scheduler"
)

// maxAgendaDays bounds agenda and listing ranges.
const maxAgendaDays = 366

func parseDateField(vErr *ValidationError, field, value string) scheduler.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, "date is required")
		return scheduler.Date{}
	}
	date, err := scheduler.ParseDate(value)
	if err != nil {
		vErr.add(field, "date must use the YYYY-MM-DD format")
		return scheduler.Date{}
	}
	return date
}

func parsePeriodsField(vErr *ValidationError, resolver *scheduler.Resolver, values []int) scheduler.PeriodSet {
	periods, err := resolver.Normalize(scheduler.PeriodsFromInts(values))
	if err != nil {
		vErr.addCause("periods", err)
		return nil
	}
	return periods
}

func requireText(vErr *ValidationError, field, value, message string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		vErr.add(field, message)
	}
	return trimmed
}

func validateRange(vErr *ValidationError, from, to scheduler.Date) {
	if from.IsZero() || to.IsZero() {
		return
	}
	if err := scheduler.ValidateRange(from, to); err != nil {
		vErr.addCause("range", err)
		return
	}
	if from.DaysUntil(to) >= maxAgendaDays {
		vErr.add("range", fmt.Sprintf("range must not exceed %d days", maxAgendaDays))
	}
}

// mapRepoError translates persistence sentinels to application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, persistence.ErrStaleState):
		return ErrInvalidState
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("record", "record violates a storage constraint")
		return vErr
	}
	return err
}
