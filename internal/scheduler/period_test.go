package scheduler

import (
	"errors"
	"slices"
	"testing"
)

func TestPeriodRange_Normalize(t *testing.T) {
	t.Parallel()

	r := DefaultPeriodRange()

	t.Run("sorts and removes duplicates", func(t *testing.T) {
		t.Parallel()
		got, err := r.Normalize([]Period{5, 1, 3, 1})
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		if !slices.Equal(got, PeriodSet{1, 3, 5}) {
			t.Fatalf("unexpected set: %v", got)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()
		if _, err := r.Normalize(nil); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("expected ErrInvalidPeriod, got %v", err)
		}
	})

	t.Run("rejects values outside range", func(t *testing.T) {
		t.Parallel()
		for _, p := range []Period{0, 10, -2} {
			if _, err := r.Normalize([]Period{1, p}); !errors.Is(err, ErrInvalidPeriod) {
				t.Fatalf("expected ErrInvalidPeriod for %d, got %v", p, err)
			}
		}
	})

	t.Run("honours configured range", func(t *testing.T) {
		t.Parallel()
		narrow := PeriodRange{Min: 1, Max: 6}
		if _, err := narrow.Normalize([]Period{7}); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("expected 7 to be rejected by 1..6, got %v", err)
		}
		wide := PeriodRange{Min: 1, Max: 12}
		if _, err := wide.Normalize([]Period{12}); err != nil {
			t.Fatalf("expected 12 to be accepted by 1..12, got %v", err)
		}
	})
}

func TestPeriodRange_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultPeriodRange().Validate(); err != nil {
		t.Fatalf("default range should be valid: %v", err)
	}
	for _, r := range []PeriodRange{{Min: 0, Max: 9}, {Min: 5, Max: 4}} {
		if err := r.Validate(); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("expected %v to be invalid, got %v", r, err)
		}
	}
}

func TestPeriodSet_Operations(t *testing.T) {
	t.Parallel()

	a := NewPeriodSet(1, 2, 3)
	b := NewPeriodSet(3, 4)
	c := NewPeriodSet(7, 8)

	if !a.Intersects(b) || a.Intersects(c) {
		t.Fatalf("unexpected Intersects results")
	}
	if got := a.Intersect(b); !slices.Equal(got, PeriodSet{3}) {
		t.Fatalf("Intersect = %v", got)
	}
	if got := a.Intersect(c); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil intersection, got %#v", got)
	}
	if got := b.Union(a); !slices.Equal(got, PeriodSet{1, 2, 3, 4}) {
		t.Fatalf("Union = %v", got)
	}
	if !(PeriodSet{2, 1}).Equal(PeriodSet{1, 2}) {
		t.Fatalf("expected order-independent equality")
	}
	if (PeriodSet{1, 2}).Equal(PeriodSet{1, 3}) {
		t.Fatalf("expected overlapping sets to be unequal")
	}
	if a.String() != "1,2,3" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestParsePeriods(t *testing.T) {
	t.Parallel()

	got, err := ParsePeriods(" 3, 1,,2 ")
	if err != nil {
		t.Fatalf("ParsePeriods returned error: %v", err)
	}
	if !slices.Equal(got, []Period{3, 1, 2}) {
		t.Fatalf("unexpected periods: %v", got)
	}

	if _, err := ParsePeriods("1,x"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	empty, err := ParsePeriods("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result for empty input, got %v, %v", empty, err)
	}
}
