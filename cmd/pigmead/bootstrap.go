package main

import (
	"fmt"
	"log/slog"

	"pigmea/internal/broadcast"
	"pigmea/internal/config"
	"pigmea/internal/daemon"
	"pigmea/internal/notifications"
	"pigmea/internal/pedidos"
	"pigmea/internal/transition"
)

// bootstrap wires the store, orchestrator, and daemon. The returned cleanup
// closes everything in reverse order.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, func(), error) {
	store, err := pedidos.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open pedido store: %w", err)
	}

	emitter, err := broadcast.Connect(cfg)
	if err != nil {
		logger.Warn("broadcast unavailable", "error", err)
		emitter = nil
	}

	orch, err := transition.New(transition.Deps{
		Store:    store,
		Recorder: store,
		Notifier: notifications.NewService(cfg),
		Emitter:  emitter,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		if emitter != nil {
			emitter.Close()
		}
		return nil, nil, err
	}

	d, err := daemon.New(cfg, store, orch, logger)
	if err != nil {
		store.Close()
		if emitter != nil {
			emitter.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if emitter != nil {
			emitter.Close()
		}
		if err := store.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}
	return d, cleanup, nil
}
