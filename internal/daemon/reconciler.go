// Package daemon holds the background services that run next to the
// manager loop.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/tilewm/internal/wm"
)

// Doer runs a request on the manager loop.
type Doer interface {
	Do(ctx context.Context, req wm.Request) (wm.Result, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	// Snapshot names the snapshot written on every pass. Empty disables
	// autosave; invariants are still checked.
	Snapshot string
	Logger   *slog.Logger
}

// Reconciler periodically checks the manager for state drift and saves a
// snapshot of the workspaces.
type Reconciler struct {
	interval time.Duration
	snapshot string
	manager  Doer
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, manager Doer) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		interval: interval,
		snapshot: cfg.Snapshot,
		manager:  manager,
		logger:   logger,
	}
}

// Serve runs passes until ctx is cancelled. It is a suture service.
func (r *Reconciler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval, "snapshot", r.snapshot)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.ReconcileNow(ctx); errors.Is(err, wm.ErrNotRunning) {
				return err
			}
		}
	}
}

func (r *Reconciler) String() string { return "reconciler" }

// ReconcileNow performs a single pass. It returns ErrNotRunning once the
// manager has stopped; other failures are logged.
func (r *Reconciler) ReconcileNow(ctx context.Context) error {
	if _, err := r.manager.Do(ctx, wm.Request{Op: wm.OpCheckInvariants}); err != nil {
		if errors.Is(err, wm.ErrNotRunning) {
			return err
		}
		r.logger.Warn("reconciler: state drift", "error", err)
	}

	if r.snapshot == "" {
		return nil
	}
	res, err := r.manager.Do(ctx, wm.Request{Op: wm.OpSaveSnapshot, Snapshot: r.snapshot})
	if err != nil {
		if errors.Is(err, wm.ErrNotRunning) {
			return err
		}
		r.logger.Error("reconciler: autosave failed", "error", err)
		return err
	}
	r.logger.Debug("reconciler: snapshot saved", "name", res.Snapshot)
	return nil
}
