// Package export renders room agendas as YAML or JSON documents.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/lab-booking/internal/scheduler"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for formats other than json and yaml.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ParseFormat accepts json, yaml or yml, defaulting to json when empty.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Agenda is the exported document: one section per calendar day in range,
// including days without occupancy.
type Agenda struct {
	RoomID string `json:"room_id" yaml:"room_id"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Days   []Day  `json:"days" yaml:"days"`
}

// Day groups the occupancy entries of one date.
type Day struct {
	Date     string  `json:"date" yaml:"date"`
	Weekday  string  `json:"weekday" yaml:"weekday"`
	Occupied []int   `json:"occupied" yaml:"occupied"`
	Entries  []Entry `json:"entries" yaml:"entries"`
}

// Entry is one occupancy line.
type Entry struct {
	Source      string `json:"source" yaml:"source"`
	Periods     []int  `json:"periods" yaml:"periods,flow"`
	Annotation  string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	ReferenceID string `json:"reference_id" yaml:"reference_id"`
	RequesterID string `json:"requester_id,omitempty" yaml:"requester_id,omitempty"`
}

// GroupByDay builds an Agenda from projected entries. Entries outside
// [from, to] are ignored.
func GroupByDay(roomID string, from, to scheduler.Date, entries []scheduler.OccupancyEntry) (Agenda, error) {
	if err := scheduler.ValidateRange(from, to); err != nil {
		return Agenda{}, err
	}

	byDate := make(map[string][]scheduler.OccupancyEntry)
	for _, entry := range entries {
		key := entry.Date.String()
		byDate[key] = append(byDate[key], entry)
	}

	agenda := Agenda{RoomID: roomID, From: from.String(), To: to.String(), Days: make([]Day, 0, from.DaysUntil(to)+1)}
	for day := from; !day.After(to); day = day.AddDays(1) {
		section := Day{
			Date:     day.String(),
			Weekday:  day.Weekday().String(),
			Occupied: []int{},
			Entries:  []Entry{},
		}
		occupied := scheduler.PeriodSet(nil)
		for _, entry := range byDate[day.String()] {
			occupied = occupied.Union(entry.Periods)
			section.Entries = append(section.Entries, Entry{
				Source:      string(entry.Source),
				Periods:     entry.Periods.Ints(),
				Annotation:  entry.Annotation,
				ReferenceID: entry.ReferenceID,
				RequesterID: entry.RequesterID,
			})
		}
		if !occupied.IsEmpty() {
			section.Occupied = occupied.Ints()
		}
		agenda.Days = append(agenda.Days, section)
	}
	return agenda, nil
}

// Render writes agenda to w in format.
func Render(w io.Writer, format Format, agenda Agenda) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(agenda)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(agenda); err != nil {
			return fmt.Errorf("export: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
