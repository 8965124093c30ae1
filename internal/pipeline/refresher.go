// Package pipeline schedules snapshot refreshes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polyfocus/internal/domain"
	"github.com/alanyoungcy/polyfocus/internal/metrics"
)

// refreshLockKey names the lock shared by every replica.
const refreshLockKey = "refresh"

// Refreshing produces a new snapshot.
type Refreshing interface {
	Refresh(ctx context.Context) (domain.Snapshot, error)
}

// SkipObserver is told about refreshes skipped because another replica held
// the lock.
type SkipObserver interface {
	ObserveRefresh(result string, d time.Duration)
}

// Refresher runs refreshes once or on a schedule. With a LockManager set, at
// most one replica refreshes at a time.
type Refresher struct {
	svc     Refreshing
	locks   domain.LockManager
	lockTTL time.Duration
	skips   SkipObserver
	logger  *slog.Logger
}

// RefresherOption customizes a Refresher.
type RefresherOption func(*Refresher)

// WithLock makes each run hold the shared refresh lock for up to ttl.
func WithLock(locks domain.LockManager, ttl time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.locks = locks
		r.lockTTL = ttl
	}
}

// WithSkipObserver reports lock-contended runs.
func WithSkipObserver(o SkipObserver) RefresherOption {
	return func(r *Refresher) { r.skips = o }
}

// NewRefresher creates a new Refresher.
func NewRefresher(svc Refreshing, logger *slog.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		svc:     svc,
		lockTTL: 2 * time.Minute,
		logger:  logger.With(slog.String("component", "refresher")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single refresh. A run skipped because another replica holds
// the lock returns nil.
func (r *Refresher) Run(ctx context.Context) error {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, refreshLockKey, r.lockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			r.logger.InfoContext(ctx, "refresh skipped: lock held elsewhere")
			if r.skips != nil {
				r.skips.ObserveRefresh(metrics.ResultSkipped, 0)
			}
			return nil
		}
		if err != nil {
			// Refresh anyway; an overlapping run only duplicates work.
			r.logger.WarnContext(ctx, "refresh lock unavailable", slog.String("error", err.Error()))
		} else {
			defer unlock()
		}
	}

	if _, err := r.svc.Refresh(ctx); err != nil {
		return fmt.Errorf("pipeline: refresh: %w", err)
	}
	return nil
}

// RunLoop refreshes immediately, then on every tick of interval and on every
// value received from trigger, until ctx is cancelled. A manual trigger
// restarts the interval. A nil trigger disables manual refreshes.
func (r *Refresher) RunLoop(ctx context.Context, interval time.Duration, trigger <-chan struct{}) error {
	r.runLogged(ctx, "startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.runLogged(ctx, "interval")
		case <-trigger:
			r.runLogged(ctx, "manual")
			ticker.Reset(interval)
		}
	}
}

func (r *Refresher) runLogged(ctx context.Context, reason string) {
	if err := r.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.ErrorContext(ctx, "refresh failed",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}
