package application

import (
	"errors"
	"testing"

	"github.com/example/lab-booking/internal/scheduler"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddMergeAndCause(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")

	other := &ValidationError{}
	other.addCause("periods", scheduler.ErrInvalidPeriod)
	base.merge(other)
	base.merge(nil)

	if len(base.FieldErrors) != 2 || base.FieldErrors["first"] != "value" {
		t.Fatalf("unexpected fields %v", base.FieldErrors)
	}
	if !errors.Is(base, scheduler.ErrInvalidPeriod) {
		t.Fatal("expected merged cause to stay matchable")
	}
}

func TestSlotConflictError(t *testing.T) {
	t.Parallel()

	err := error(&SlotConflictError{RoomID: "lab-1", Date: scheduler.MustParseDate("2024-03-04"), Periods: scheduler.NewPeriodSet(2)})
	if !errors.Is(err, ErrConflict) {
		t.Fatal("expected SlotConflictError to match ErrConflict")
	}
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) || conflict.Periods.String() != "2" {
		t.Fatalf("expected periods to be recoverable, got %v", conflict)
	}
	if got := err.Error(); got != "application: periods unavailable: room lab-1 on 2024-03-04 periods 2" {
		t.Fatalf("unexpected message %q", got)
	}
}
