package domain

import (
	"context"
	"time"
)

// SnapshotCache holds the most recent Snapshot for fast reads across
// instances.
type SnapshotCache interface {
	SetLatest(ctx context.Context, snap Snapshot) error
	GetLatest(ctx context.Context) (Snapshot, error)
}

// LockManager hands out short-lived exclusive locks.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
