package broadcast

import (
	"context"
	"testing"

	"pigmea/internal/config"
)

func TestDisabledEmitterIsNoop(t *testing.T) {
	cfg := config.Default()
	emitter, err := Connect(&cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer emitter.Close()

	if emitter.Enabled() {
		t.Fatal("disabled config should yield a noop emitter")
	}
	if err := emitter.Publish(context.Background(), Event{Event: "stage-changed", PedidoID: "p-1"}); err != nil {
		t.Fatalf("noop publish returned error: %v", err)
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Publish(context.Background(), Event{Event: "x"}); err != nil {
		t.Fatalf("nil emitter publish returned error: %v", err)
	}
	emitter.Close()
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Stage Changed", "stage-changed"},
		{"COMPLETADO", "completado"},
		{"  ", "unknown"},
		{"reorden/continuación", "reorden-continuaci-n"},
	}
	for _, tc := range cases {
		if got := sanitizeToken(tc.input); got != tc.want {
			t.Fatalf("sanitizeToken(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
