package scheduler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/example/lab-booking/internal/recurrence"
)

func TestDate(t *testing.T) {
	t.Parallel()

	d := MustParseDate("2024-03-04")
	if d.Weekday() != recurrence.Monday {
		t.Fatalf("expected 2024-03-04 to be Monday, got %v", d.Weekday())
	}
	if d.AddDays(6).Weekday() != recurrence.Sunday {
		t.Fatalf("expected 2024-03-10 to be Sunday")
	}
	if !d.Before(d.AddDays(1)) || !d.AddDays(1).After(d) || !d.Equal(NewDate(2024, time.March, 4)) {
		t.Fatalf("unexpected ordering")
	}
	if got := d.DaysUntil(MustParseDate("2024-04-03")); got != 30 {
		t.Fatalf("DaysUntil = %d", got)
	}
	if _, err := ParseDate("04/03/2024"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDate_TodayUsesLocation(t *testing.T) {
	t.Parallel()

	fortaleza := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, time.March, 5, 1, 30, 0, 0, time.UTC)
	if got := Today(now, fortaleza); got.String() != "2024-03-04" {
		t.Fatalf("expected local date 2024-03-04, got %s", got)
	}
	if got := Today(now, nil); got.String() != "2024-03-05" {
		t.Fatalf("expected UTC date 2024-03-05, got %s", got)
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	payload := struct {
		Day Date `json:"day"`
	}{Day: MustParseDate("2024-12-31")}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(raw) != `{"day":"2024-12-31"}` {
		t.Fatalf("unexpected JSON: %s", raw)
	}

	var decoded struct {
		Day Date `json:"day"`
	}
	if err := json.Unmarshal([]byte(`{"day":"2025-01-02"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if decoded.Day.String() != "2025-01-02" {
		t.Fatalf("unexpected decoded date: %s", decoded.Day)
	}
	if err := json.Unmarshal([]byte(`{"day":"2025-13-02"}`), &decoded); err == nil {
		t.Fatalf("expected invalid month to fail")
	}
}
