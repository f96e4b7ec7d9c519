package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/transition"
)

// Daemon runs the background maintenance loop and enforces single-instance
// execution through a lock file next to the database.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *pedidos.SQLiteStore
	orch   *transition.Orchestrator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a daemon. All collaborators are required.
func New(cfg *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With("component", "daemon"),
		store:    store,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the maintenance loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another pigmead instance holds %s", d.lockPath)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	go d.maintenanceLoop(loopCtx)

	d.logger.Info("daemon started",
		"database", d.store.Path(),
		"lock", d.lockPath,
		"maintenance_interval_s", d.cfg.Workflow.MaintenanceInterval,
	)
	return nil
}

// Stop halts the maintenance loop and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.done != nil {
		<-d.done
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", "error", err)
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon holds the lock and its loop is live.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the path of the instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

func (d *Daemon) maintenanceLoop(ctx context.Context) {
	defer close(d.done)

	interval := time.Duration(d.cfg.Workflow.MaintenanceInterval) * time.Second
	if interval <= 0 {
		d.logger.Info("maintenance disabled")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.RunMaintenance(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("maintenance sweep", "error", err)
			}
		}
	}
}

// RunMaintenance performs one sweep: completed pedidos older than the
// configured auto-archive window move to the archive.
func (d *Daemon) RunMaintenance(ctx context.Context) error {
	days := d.cfg.Workflow.AutoArchiveAfterDays
	if days <= 0 {
		return nil
	}

	archived, err := d.orch.AutoArchive(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	if archived > 0 {
		d.logger.Info("auto-archive sweep", "archived", archived)
	}
	return nil
}
