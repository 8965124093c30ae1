package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// DefaultSnapshotTTL bounds how long a snapshot is served after the last
// successful refresh.
const DefaultSnapshotTTL = 5 * time.Minute

// Key schema:
//
//	polyfocus:snapshot:latest - JSON-encoded domain.Snapshot
//	polyfocus:snapshot:id     - id of the latest snapshot
const (
	snapshotKey   = "polyfocus:snapshot:latest"
	snapshotIDKey = "polyfocus:snapshot:id"
)

// SnapshotCache implements domain.SnapshotCache. Every refresh overwrites the
// previous entry.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A
// non-positive ttl selects DefaultSnapshotTTL.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{rdb: c.rdb, ttl: ttl}
}

// SetLatest stores snap as the latest snapshot.
func (sc *SnapshotCache) SetLatest(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.ID, err)
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Set(ctx, snapshotKey, data, sc.ttl)
	pipe.Set(ctx, snapshotIDKey, snap.ID, sc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// GetLatest returns the cached snapshot, or domain.ErrNoSnapshot when nothing
// is cached or the entry has expired.
func (sc *SnapshotCache) GetLatest(ctx context.Context) (domain.Snapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// LatestID returns the id of the cached snapshot without decoding it.
func (sc *SnapshotCache) LatestID(ctx context.Context) (string, error) {
	id, err := sc.rdb.Get(ctx, snapshotIDKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNoSnapshot
		}
		return "", fmt.Errorf("redis: get snapshot id: %w", err)
	}
	return id, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
