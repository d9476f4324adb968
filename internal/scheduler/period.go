package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Period identifies one lesson slot within a school day.
type Period int

// PeriodRange bounds the valid period identifiers, inclusive on both ends.
type PeriodRange struct {
	Min Period
	Max Period
}

// DefaultPeriodRange returns the nine-lesson day used when no range is configured.
func DefaultPeriodRange() PeriodRange {
	return PeriodRange{Min: 1, Max: 9}
}

// Validate reports whether the range itself is usable.
func (r PeriodRange) Validate() error {
	if r.Min < 1 || r.Max < r.Min {
		return fmt.Errorf("%w: range %d..%d", ErrInvalidPeriod, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether p lies within the range.
func (r PeriodRange) Contains(p Period) bool {
	return p >= r.Min && p <= r.Max
}

// Normalize validates periods against the range and returns them as a sorted,
// duplicate-free set. An empty input is rejected.
func (r PeriodRange) Normalize(periods []Period) (PeriodSet, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: at least one period is required", ErrInvalidPeriod)
	}
	for _, p := range periods {
		if !r.Contains(p) {
			return nil, fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidPeriod, p, r.Min, r.Max)
		}
	}
	return NewPeriodSet(periods...), nil
}

// PeriodSet is a sorted, duplicate-free collection of periods.
type PeriodSet []Period

// NewPeriodSet sorts and deduplicates periods without range validation.
// The result is never nil.
func NewPeriodSet(periods ...Period) PeriodSet {
	out := make(PeriodSet, len(periods))
	copy(out, periods)
	slices.Sort(out)
	return slices.Compact(out)
}

// ParsePeriods reads a comma separated list such as "1,2,5".
func ParsePeriods(value string) ([]Period, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	periods := make([]Period, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidPeriod, part)
		}
		periods = append(periods, Period(n))
	}
	return periods, nil
}

// PeriodsFromInts converts raw integers to periods.
func PeriodsFromInts(values []int) []Period {
	out := make([]Period, len(values))
	for i, v := range values {
		out[i] = Period(v)
	}
	return out
}

// IsEmpty reports whether the set has no members.
func (s PeriodSet) IsEmpty() bool {
	return len(s) == 0
}

// Contains reports whether p is a member of the set.
func (s PeriodSet) Contains(p Period) bool {
	return slices.Contains(s, p)
}

// Intersects reports whether the two sets share at least one period.
func (s PeriodSet) Intersects(other PeriodSet) bool {
	for _, p := range s {
		if other.Contains(p) {
			return true
		}
	}
	return false
}

// Intersect returns the periods present in both sets.
func (s PeriodSet) Intersect(other PeriodSet) PeriodSet {
	shared := make([]Period, 0, min(len(s), len(other)))
	for _, p := range s {
		if other.Contains(p) {
			shared = append(shared, p)
		}
	}
	return NewPeriodSet(shared...)
}

// Union returns the periods present in either set.
func (s PeriodSet) Union(other PeriodSet) PeriodSet {
	merged := make([]Period, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return NewPeriodSet(merged...)
}

// Equal reports whether both sets hold exactly the same periods, regardless of order.
func (s PeriodSet) Equal(other PeriodSet) bool {
	return slices.Equal(NewPeriodSet(s...), NewPeriodSet(other...))
}

// Ints returns the set as plain integers.
func (s PeriodSet) Ints() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = int(p)
	}
	return out
}

// String renders the set as "1,2,5".
func (s PeriodSet) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, ",")
}
