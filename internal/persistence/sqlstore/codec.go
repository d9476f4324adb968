package sqlstore

import (
	"fmt"

	"github.com/example/lab-booking/internal/recurrence"
	"github.com/example/lab-booking/internal/scheduler"
)

func encodePeriods(periods scheduler.PeriodSet) string {
	return periods.String()
}

func decodePeriods(value string) (scheduler.PeriodSet, error) {
	periods, err := scheduler.ParsePeriods(value)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: decode periods %q: %w", value, err)
	}
	return scheduler.NewPeriodSet(periods...), nil
}

func decodeDate(value string) (scheduler.Date, error) {
	date, err := scheduler.ParseDate(value)
	if err != nil {
		return scheduler.Date{}, fmt.Errorf("sqlstore: decode date %q: %w", value, err)
	}
	return date, nil
}

func decodeWeekday(value int) (recurrence.Weekday, error) {
	weekday := recurrence.Weekday(value)
	if !weekday.Valid() {
		return 0, fmt.Errorf("sqlstore: decode weekday %d: %w", value, recurrence.ErrInvalidWeekday)
	}
	return weekday, nil
}
