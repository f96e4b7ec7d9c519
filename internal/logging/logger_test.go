package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)

	logger := slog.New(newPrettyHandler(&buf, lvl, false))
	logger.Info("stage advanced",
		slog.String("component", "transition"),
		slog.String("pedido", "p-1"),
		slog.String("stage", "POST_LAMINACION_SL2"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO transition: stage advanced") {
		t.Fatalf("unexpected output: %q", line)
	}
	if !strings.Contains(line, "pedido=p-1") || !strings.Contains(line, "stage=POST_LAMINACION_SL2") {
		t.Fatalf("missing attributes: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component attribute should be folded into prefix: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)

	handler := newPrettyHandler(&buf, lvl, false)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}

	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestPrettyHandlerGroupsFlatten(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)

	logger := slog.New(newPrettyHandler(&buf, lvl, false)).WithGroup("order")
	logger.Info("created", slog.String("client", "Acme"))

	if !strings.Contains(buf.String(), "order.client=Acme") {
		t.Fatalf("grouped attribute not flattened: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
