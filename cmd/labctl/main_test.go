package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/config"
	httptransport "github.com/example/lab-booking/internal/http"
	"github.com/example/lab-booking/internal/persistence/sqlstore"
	"github.com/example/lab-booking/internal/scheduler"
	"github.com/example/lab-booking/internal/testfixtures"
)

const testSecret = "cli-secret"

type cliHarness struct {
	env    *environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dbPath string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "labbooking.db")
	cfg := config.Defaults()
	cfg.DBDSN = dbPath
	cfg.JWTSecret = testSecret
	cfg.LogLevel = "error"
	cfg.Location = time.UTC

	h := &cliHarness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dbPath: dbPath}
	h.env = &environment{
		stdout:     h.stdout,
		stderr:     h.stderr,
		loadConfig: func() (config.Config, error) { return cfg, nil },
		now:        testfixtures.ReferenceTime,
	}
	return h
}

func (h *cliHarness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	return h.env.execute(context.Background(), args)
}

// seed migrates the database and stores one room with a Monday class on
// periods 1,2 and an approved booking on period 3 of 2024-03-04.
func (h *cliHarness) seed(t *testing.T) {
	t.Helper()
	if err := h.run("migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, h.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	room := testfixtures.NewRoom(testfixtures.WithRoomID("lab-1"))
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := store.CreateFixedSchedule(ctx, testfixtures.NewFixedSchedule("lab-1")); err != nil {
		t.Fatalf("seed fixed schedule: %v", err)
	}
	booking := testfixtures.NewBooking("lab-1", "teacher-1",
		testfixtures.WithBookingID("b-approved"),
		testfixtures.WithBookingPeriods(3),
		testfixtures.WithStatus(scheduler.StatusApproved),
	)
	if err := store.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestExecute_Dispatch(t *testing.T) {
	h := newCLIHarness(t)

	if err := h.run(); err == nil {
		t.Fatalf("expected missing command to fail")
	}
	if !strings.Contains(h.stderr.String(), "migrate") {
		t.Fatalf("expected usage listing, got %q", h.stderr.String())
	}

	if err := h.run("--help"); err != nil {
		t.Fatalf("help: %v", err)
	}

	err := h.run("bogus")
	if err == nil || !strings.Contains(err.Error(), `unknown command "bogus"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	err = h.run("check", "--rooom", "lab-1")
	if err == nil || !strings.Contains(err.Error(), "labctl check --help") {
		t.Fatalf("expected unknown flag error, got %v", err)
	}

	if err := h.run("check", "--help"); err != nil {
		t.Fatalf("command help: %v", err)
	}
	if !strings.Contains(h.stderr.String(), "--periods") {
		t.Fatalf("expected flag usage, got %q", h.stderr.String())
	}

	err = h.run("migrate", "extra")
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Fatalf("expected unexpected argument error, got %v", err)
	}
}

func TestMigrateCommand(t *testing.T) {
	h := newCLIHarness(t)

	for i := 0; i < 2; i++ {
		if err := h.run("migrate"); err != nil {
			t.Fatalf("migrate run %d: %v", i, err)
		}
		if got := strings.TrimSpace(h.stdout.String()); got != "schema up to date: 3 migrations applied, latest 003" {
			t.Fatalf("unexpected output on run %d: %q", i, got)
		}
	}
}

func TestMigrateCommand_ConfigError(t *testing.T) {
	h := newCLIHarness(t)
	want := errors.New("variáveis de ambiente obrigatórias ausentes: LAB_JWT_SECRET")
	h.env.loadConfig = func() (config.Config, error) { return config.Config{}, want }

	if err := h.run("migrate"); !errors.Is(err, want) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	h := newCLIHarness(t)
	h.seed(t)

	t.Run("available", func(t *testing.T) {
		if err := h.run("check", "--room", "lab-1", "--date", "2024-03-04", "--periods", "5,4"); err != nil {
			t.Fatalf("check: %v", err)
		}
		out := h.stdout.String()
		if !strings.Contains(out, "periods 4,5") || !strings.Contains(out, "available") {
			t.Fatalf("unexpected output %q", out)
		}
	})

	t.Run("conflicting", func(t *testing.T) {
		err := h.run("check", "--room", "lab-1", "--date", "2024-03-04", "--periods", "2,3,4")
		var exit exitError
		if !errors.As(err, &exit) || exit.ExitCode() != exitUnavailable {
			t.Fatalf("expected exit code %d, got %v", exitUnavailable, err)
		}
		if !strings.Contains(h.stdout.String(), "unavailable: periods 2,3 already occupied") {
			t.Fatalf("unexpected output %q", h.stdout.String())
		}
	})

	t.Run("other weekday is free", func(t *testing.T) {
		if err := h.run("check", "--room", "lab-1", "--date", "2024-03-05", "--periods", "1,2"); err != nil {
			t.Fatalf("check: %v", err)
		}
	})

	t.Run("malformed periods", func(t *testing.T) {
		err := h.run("check", "--room", "lab-1", "--date", "2024-03-04", "--periods", "1,x")
		if !errors.Is(err, scheduler.ErrInvalidPeriod) {
			t.Fatalf("expected ErrInvalidPeriod, got %v", err)
		}
	})

	t.Run("validation errors are listed", func(t *testing.T) {
		err := h.run("check", "--room", "lab-1", "--date", "04/03/2024", "--periods", "12")
		if err == nil {
			t.Fatalf("expected validation error")
		}
		msg := err.Error()
		if !strings.HasPrefix(msg, "invalid input: date: ") || !strings.Contains(msg, "; periods: ") {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		err := h.run("check", "--room", "lab-9", "--date", "2024-03-04", "--periods", "1")
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAgendaCommand(t *testing.T) {
	h := newCLIHarness(t)
	h.seed(t)

	t.Run("yaml by default", func(t *testing.T) {
		if err := h.run("agenda", "--room", "lab-1", "--from", "2024-03-04", "--to", "2024-03-05"); err != nil {
			t.Fatalf("agenda: %v", err)
		}
		out := h.stdout.String()
		for _, want := range []string{"room_id: lab-1", "periods: [1, 2]", "periods: [3]", "reference_id: b-approved"} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in:\n%s", want, out)
			}
		}
	})

	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agenda.json")
		if err := h.run("agenda", "--room", "lab-1", "--from", "2024-03-04", "--to", "2024-03-05", "-f", "json", "-o", path); err != nil {
			t.Fatalf("agenda: %v", err)
		}
		if h.stdout.Len() != 0 {
			t.Fatalf("expected nothing on stdout, got %q", h.stdout.String())
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		var doc struct {
			RoomID string `json:"room_id"`
			Days   []struct {
				Date     string `json:"date"`
				Occupied []int  `json:"occupied"`
			} `json:"days"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if doc.RoomID != "lab-1" || len(doc.Days) != 2 {
			t.Fatalf("unexpected document %+v", doc)
		}
		if got := doc.Days[0].Occupied; len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Fatalf("unexpected monday occupancy %v", got)
		}
		if len(doc.Days[1].Occupied) != 0 {
			t.Fatalf("expected free tuesday, got %v", doc.Days[1].Occupied)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := h.run("agenda", "--room", "lab-1", "--from", "2024-03-04", "--to", "2024-03-05", "--format", "xml")
		if err == nil || !strings.Contains(err.Error(), "unsupported format") {
			t.Fatalf("expected format error, got %v", err)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		err := h.run("agenda", "--room", "lab-1", "--from", "2024-03-05", "--to", "2024-03-04")
		if !errors.Is(err, scheduler.ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
	})
}

func TestTokenCommand(t *testing.T) {
	h := newCLIHarness(t)

	if err := h.run("token", "--sub", "admin-1", "--role", "admin", "--ttl", "1h"); err != nil {
		t.Fatalf("token: %v", err)
	}
	raw := strings.TrimSpace(h.stdout.String())
	principal, err := httptransport.ParseToken(testSecret, raw, func() time.Time {
		return testfixtures.ReferenceTime().Add(30 * time.Minute)
	})
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if principal.UserID != "admin-1" || principal.Role != application.RoleAdmin {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if err := h.run("token", "--sub", "x", "--role", "student"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
	if err := h.run("token", "--role", "admin"); err == nil {
		t.Fatalf("expected missing subject to fail")
	}
	if err := h.run("token", "--sub", "x", "--ttl", "0s"); err == nil {
		t.Fatalf("expected non-positive ttl to fail")
	}
}
