package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if updated := clock.Advance(90 * time.Minute); !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}
	if updated := clock.AdvanceDays(2); updated.Day() != 6 {
		t.Fatalf("expected day 6 after AdvanceDays, got %v", updated)
	}

	clock.Set(start)
	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}

func TestClockTodayUsesLocation(t *testing.T) {
	fortaleza := time.FixedZone("BRT", -3*60*60)
	clock := NewClock(time.Date(2024, time.March, 5, 1, 30, 0, 0, time.UTC))

	if got := clock.Today(time.UTC).String(); got != "2024-03-05" {
		t.Fatalf("expected UTC day 2024-03-05, got %s", got)
	}
	if got := clock.Today(fortaleza).String(); got != "2024-03-04" {
		t.Fatalf("expected local day 2024-03-04, got %s", got)
	}
}

func TestClockNowFunc(t *testing.T) {
	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatal("expected time.Now fallback for nil clock")
	}
	clock := NewClock(time.Time{})
	if got := clock.NowFunc()(); !got.Equal(ReferenceTime()) {
		t.Fatalf("expected reference time, got %v", got)
	}
}
