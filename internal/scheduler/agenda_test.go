package scheduler

import (
	"errors"
	"slices"
	"testing"

	"github.com/example/lab-booking/internal/recurrence"
)

func TestProjectAgenda(t *testing.T) {
	t.Parallel()

	from := MustParseDate("2024-03-04")
	to := from.AddDays(6)

	t.Run("empty inputs give empty agenda", func(t *testing.T) {
		t.Parallel()
		got, err := ProjectAgenda(nil, nil, roomA, from, to)
		if err != nil {
			t.Fatalf("ProjectAgenda returned error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no entries, got %v", got)
		}
	})

	t.Run("weekly schedule appears once per week", func(t *testing.T) {
		t.Parallel()
		schedule := mondayLab()
		schedule.ValidUntil = MustParseDate("2024-12-20")
		got, err := ProjectAgenda([]FixedSchedule{schedule}, nil, roomA, from, to)
		if err != nil {
			t.Fatalf("ProjectAgenda returned error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected exactly one entry, got %d", len(got))
		}
		entry := got[0]
		if entry.Source != SourceFixed || !entry.Date.Equal(from) || entry.ReferenceID != "fixed-1" || entry.Annotation != "Robotics club" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
		if !slices.Equal(entry.Periods, PeriodSet{1, 2}) {
			t.Fatalf("unexpected periods: %v", entry.Periods)
		}
	})

	t.Run("orders by date with fixed before approved", func(t *testing.T) {
		t.Parallel()
		wednesday := FixedSchedule{ID: "fixed-w", RoomID: roomA, Weekday: recurrence.Wednesday, Periods: NewPeriodSet(4), ValidFrom: from, ValidUntil: to, Description: "Chemistry"}
		bookings := []BookingRequest{
			{ID: "late", RoomID: roomA, RequesterID: "teacher-2", Date: MustParseDate("2024-03-09"), Periods: NewPeriodSet(1), Status: StatusApproved, Description: "Exam prep"},
			{ID: "same-day", RoomID: roomA, RequesterID: "teacher-1", Date: MustParseDate("2024-03-06"), Periods: NewPeriodSet(4, 5), Status: StatusApproved},
			{ID: "early", RoomID: roomA, RequesterID: "teacher-3", Date: from, Periods: NewPeriodSet(9), Status: StatusApproved},
			{ID: "pending", RoomID: roomA, RequesterID: "teacher-1", Date: from, Periods: NewPeriodSet(3), Status: StatusPending},
			{ID: "rejected", RoomID: roomA, RequesterID: "teacher-1", Date: from, Periods: NewPeriodSet(3), Status: StatusRejected},
			{ID: "outside", RoomID: roomA, RequesterID: "teacher-1", Date: to.AddDays(1), Periods: NewPeriodSet(3), Status: StatusApproved},
			{ID: "other-room", RoomID: "lab-b", RequesterID: "teacher-1", Date: from, Periods: NewPeriodSet(3), Status: StatusApproved},
		}

		got, err := ProjectAgenda([]FixedSchedule{wednesday, mondayLab()}, bookings, roomA, from, to)
		if err != nil {
			t.Fatalf("ProjectAgenda returned error: %v", err)
		}

		ids := make([]string, len(got))
		for i, e := range got {
			ids[i] = e.ReferenceID
		}
		want := []string{"fixed-1", "early", "fixed-w", "same-day", "late"}
		if !slices.Equal(ids, want) {
			t.Fatalf("unexpected order %v, want %v", ids, want)
		}

		sameDay := got[3]
		if sameDay.Source != SourceApproved || sameDay.Annotation != "teacher-1" || sameDay.RequesterID != "teacher-1" {
			t.Fatalf("expected requester annotation for undescribed booking, got %+v", sameDay)
		}
		if got[4].Annotation != "Exam prep" {
			t.Fatalf("expected description annotation, got %q", got[4].Annotation)
		}
	})

	t.Run("single day range", func(t *testing.T) {
		t.Parallel()
		got, err := ProjectAgenda([]FixedSchedule{mondayLab()}, nil, roomA, from, from)
		if err != nil {
			t.Fatalf("ProjectAgenda returned error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one entry, got %d", len(got))
		}
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		t.Parallel()
		if _, err := ProjectAgenda(nil, nil, roomA, to, from); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
	})
}

func TestFixedSchedule_OccurrencesWithin(t *testing.T) {
	t.Parallel()

	schedule := FixedSchedule{
		ID:         "fixed-w",
		RoomID:     roomA,
		Weekday:    recurrence.Wednesday,
		Periods:    NewPeriodSet(1),
		ValidFrom:  MustParseDate("2024-03-07"),
		ValidUntil: MustParseDate("2024-03-27"),
	}

	cases := []struct {
		name     string
		schedule func() FixedSchedule
		from, to string
		want     []string
	}{
		{"clipped to window", func() FixedSchedule { return schedule }, "2024-03-01", "2024-03-31", []string{"2024-03-13", "2024-03-20", "2024-03-27"}},
		{"clipped to range", func() FixedSchedule { return schedule }, "2024-03-14", "2024-03-20", []string{"2024-03-20"}},
		{"range outside window", func() FixedSchedule { return schedule }, "2024-04-01", "2024-04-30", nil},
		{"inverted window", func() FixedSchedule {
			s := schedule
			s.ValidFrom, s.ValidUntil = s.ValidUntil, s.ValidFrom
			return s
		}, "2024-03-01", "2024-03-31", nil},
		{"invalid weekday", func() FixedSchedule {
			s := schedule
			s.Weekday = 9
			return s
		}, "2024-03-01", "2024-03-31", nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, day := range tc.schedule().OccurrencesWithin(MustParseDate(tc.from), MustParseDate(tc.to)) {
				got = append(got, day.String())
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("OccurrencesWithin = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProjectAgenda_FixedEntriesMatchDailyScan(t *testing.T) {
	t.Parallel()

	schedules := []FixedSchedule{
		{ID: "mon", RoomID: roomA, Weekday: recurrence.Monday, Periods: NewPeriodSet(1, 2), ValidFrom: MustParseDate("2024-02-01"), ValidUntil: MustParseDate("2024-04-15")},
		{ID: "mon-late", RoomID: roomA, Weekday: recurrence.Monday, Periods: NewPeriodSet(5), ValidFrom: MustParseDate("2024-03-10"), ValidUntil: MustParseDate("2024-06-30")},
		{ID: "sun", RoomID: roomA, Weekday: recurrence.Sunday, Periods: NewPeriodSet(9), ValidFrom: MustParseDate("2024-01-01"), ValidUntil: MustParseDate("2024-12-31")},
		{ID: "other-room", RoomID: "lab-other", Weekday: recurrence.Monday, Periods: NewPeriodSet(3), ValidFrom: MustParseDate("2024-01-01"), ValidUntil: MustParseDate("2024-12-31")},
	}
	from := MustParseDate("2024-03-01")
	to := MustParseDate("2024-04-30")

	got, err := ProjectAgenda(schedules, nil, roomA, from, to)
	if err != nil {
		t.Fatalf("ProjectAgenda returned error: %v", err)
	}

	var want []string
	for day := from; !day.After(to); day = day.AddDays(1) {
		for _, schedule := range schedules {
			if schedule.RoomID == roomA && schedule.ActiveOn(day) {
				want = append(want, day.String()+"/"+schedule.ID)
			}
		}
	}
	var have []string
	for _, entry := range got {
		have = append(have, entry.Date.String()+"/"+entry.ReferenceID)
	}
	if !slices.Equal(have, want) {
		t.Fatalf("agenda entries differ from daily scan:\n got %v\nwant %v", have, want)
	}
}
