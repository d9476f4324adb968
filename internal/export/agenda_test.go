package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/example/lab-booking/internal/scheduler"
)

func sampleEntries() []scheduler.OccupancyEntry {
	monday := scheduler.MustParseDate("2024-03-04")
	return []scheduler.OccupancyEntry{
		{Date: monday, Source: scheduler.SourceFixed, Periods: scheduler.NewPeriodSet(1, 2), Annotation: "Algoritmos", ReferenceID: "fs-1"},
		{Date: monday, Source: scheduler.SourceApproved, Periods: scheduler.NewPeriodSet(2, 5), Annotation: "Revisao", ReferenceID: "b-1", RequesterID: "prof-a"},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("csv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestGroupByDay(t *testing.T) {
	t.Parallel()

	from := scheduler.MustParseDate("2024-03-04")
	to := scheduler.MustParseDate("2024-03-06")
	agenda, err := GroupByDay("lab-1", from, to, sampleEntries())
	if err != nil {
		t.Fatalf("group: %v", err)
	}

	if len(agenda.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(agenda.Days))
	}
	first := agenda.Days[0]
	if first.Date != "2024-03-04" || len(first.Entries) != 2 {
		t.Fatalf("unexpected first day %+v", first)
	}
	if got := scheduler.NewPeriodSet(scheduler.PeriodsFromInts(first.Occupied)...).String(); got != "1,2,5" {
		t.Fatalf("expected occupied 1,2,5, got %s", got)
	}
	if len(agenda.Days[1].Entries) != 0 || agenda.Days[1].Occupied == nil {
		t.Fatalf("expected empty but non-nil day, got %+v", agenda.Days[1])
	}

	if _, err := GroupByDay("lab-1", to, from, nil); !errors.Is(err, scheduler.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	day := scheduler.MustParseDate("2024-03-04")
	agenda, err := GroupByDay("lab-1", day, day, sampleEntries())
	if err != nil {
		t.Fatalf("group: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatJSON, agenda); err != nil {
			t.Fatalf("render: %v", err)
		}
		var decoded Agenda
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Days[0].Entries[1].RequesterID != "prof-a" {
			t.Fatalf("unexpected decoded agenda %+v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatYAML, agenda); err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.Contains(buf.String(), "periods: [1, 2]") {
			t.Fatalf("expected flow period list, got:\n%s", buf.String())
		}
		var decoded Agenda
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.RoomID != "lab-1" || decoded.Days[0].Entries[0].Source != "fixed" {
			t.Fatalf("unexpected decoded agenda %+v", decoded)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := Render(&bytes.Buffer{}, Format("csv"), agenda); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}
