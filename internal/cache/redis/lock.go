package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// releaseScript deletes KEYS[1] only while it still holds this holder's token;
// after a TTL expiry another replica may own the key.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// releaseTimeout bounds the release call, which runs on a fresh context.
const releaseTimeout = 5 * time.Second

// LockManager hands out TTL-bounded Redis locks so that replicas sharing one
// Redis do not refresh concurrently.
type LockManager struct {
	rdb *redis.Client
}

func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.rdb}
}

// Acquire takes the lock for key for at most ttl. It returns domain.ErrLockHeld
// when another holder has it. The returned release func is idempotent.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	k := lockKey(key)
	token := uuid.NewString()

	ok, err := lm.rdb.SetNX(ctx, k, token, ttl).Result()
	switch {
	case err != nil:
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	case !ok:
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			// Expiry covers a failed release.
			_ = releaseScript.Run(rctx, lm.rdb, []string{k}, token).Err()
		})
	}, nil
}

func lockKey(key string) string { return "polyfocus:lock:" + key }

var _ domain.LockManager = (*LockManager)(nil)
