package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pigmea/internal/broadcast"
	"pigmea/internal/config"
	"pigmea/internal/notifications"
	"pigmea/internal/pedidos"
	"pigmea/internal/transition"
)

type commandContext struct {
	configFlag *string
	actorFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, actorFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, actorFlag: actorFlag}
}

func (c *commandContext) actor() string {
	if c.actorFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.actorFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *pedidos.SQLiteStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := pedidos.Open(cfg)
	if err != nil {
		return fmt.Errorf("open pedido store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// withOrchestrator wires the full stack behind a command: the SQLite store
// doubles as the audit recorder, notifications come from config, and the
// broadcast emitter degrades to a warning when the bus is unreachable.
func (c *commandContext) withOrchestrator(fn func(*config.Config, *pedidos.SQLiteStore, *transition.Orchestrator) error) error {
	return c.withStore(func(cfg *config.Config, store *pedidos.SQLiteStore) error {
		emitter, err := broadcast.Connect(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: broadcast unavailable: %v\n", err)
			emitter = nil
		}
		if emitter != nil {
			defer emitter.Close()
		}

		orch, err := transition.New(transition.Deps{
			Store:    store,
			Recorder: store,
			Notifier: notifications.NewService(cfg),
			Emitter:  emitter,
			Actor:    c.actor(),
		})
		if err != nil {
			return err
		}
		return fn(cfg, store, orch)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
