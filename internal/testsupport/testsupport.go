// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithNtfyTopic sets the notification topic on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// MustOpenStore opens a SQLite store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *pedidos.SQLiteStore {
	t.Helper()

	store, err := pedidos.Open(cfg)
	if err != nil {
		t.Fatalf("pedidos.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOrchestrator builds an orchestrator over a store for tests.
func MustOrchestrator(t testing.TB, store pedidos.Store) *transition.Orchestrator {
	t.Helper()

	orch, err := transition.New(transition.Deps{Store: store})
	if err != nil {
		t.Fatalf("transition.New: %v", err)
	}
	return orch
}

// SeedPedido registers a ready-to-print pedido for tests.
func SeedPedido(t testing.TB, orch *transition.Orchestrator, registration string) *pedidos.Pedido {
	t.Helper()

	pedido, err := orch.Register(context.Background(), pedidos.NewParams{
		RegistrationNumber: registration,
		Client:             "Cliente de Prueba",
		Priority:           pedidos.PriorityNormal,
		WorkSequence:       []stages.Stage{stages.LaminationSL2, stages.RewindS2DT},
		MaterialAvailable:  true,
		ClicheAvailable:    true,
		ClicheStatus:       preparation.ClichePendingClient,
	})
	if err != nil {
		t.Fatalf("register pedido: %v", err)
	}
	return pedido
}
