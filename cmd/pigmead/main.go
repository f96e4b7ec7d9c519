package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"pigmea/internal/config"
	"pigmea/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg, "pigmead.log")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, cleanup, err := bootstrap(cfg, logger)
	if err != nil {
		logger.Error("bootstrap", "error", err)
		return
	}
	defer cleanup()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", "error", err)
		return
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("pigmead shutting down")
}
