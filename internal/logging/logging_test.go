package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "debug")
	ctx := ContextWithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil logger for bare context")
	}

	FromContextOr(ctx, nil).Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestFromContextOr(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContextOr(context.Background(), fallback) != fallback {
		t.Fatal("expected fallback logger")
	}
	if FromContextOr(context.Background(), nil) != slog.Default() {
		t.Fatal("expected default logger")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestOrDefault(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if OrDefault(custom) != custom {
		t.Fatal("expected custom logger")
	}
	if OrDefault(nil) != slog.Default() {
		t.Fatal("expected default logger")
	}
}

func TestScoped(t *testing.T) {
	t.Parallel()

	var requestBuf, fallbackBuf bytes.Buffer
	request := New(&requestBuf, "info").With("request_id", "req-7")
	fallback := New(&fallbackBuf, "info")

	ctx := ContextWithLogger(context.Background(), request)
	Scoped(ctx, fallback, "service", "BookingService", "SubmitBooking", "room_id", "lab-1").Info("submitted")

	out := requestBuf.String()
	for _, want := range []string{`"request_id":"req-7"`, `"service":"BookingService"`, `"operation":"SubmitBooking"`, `"room_id":"lab-1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if fallbackBuf.Len() != 0 {
		t.Fatalf("expected fallback to stay silent, got %q", fallbackBuf.String())
	}

	Scoped(context.Background(), fallback, "handler", "RoomHandler", "").Info("listed")
	if strings.Contains(fallbackBuf.String(), `"operation"`) {
		t.Fatalf("expected empty operation to be omitted: %s", fallbackBuf.String())
	}
	if !strings.Contains(fallbackBuf.String(), `"handler":"RoomHandler"`) {
		t.Fatalf("expected handler attribute: %s", fallbackBuf.String())
	}
}
