package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. The sweep lock keeps
// multiple process instances from running the same sweep cycle; it is an
// efficiency measure only, settlement correctness comes from the database
// claim updates.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

const sweepLockKey = "lock:completion-sweep"

// AcquireSweepLock attempts to acquire the sweep lock for the given interval.
// Returns true if the lock was acquired, false if another instance holds it.
func (s *LockStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, sweepLockKey, "1", ttl).Result()
}

// ReleaseSweepLock releases the sweep lock.
func (s *LockStore) ReleaseSweepLock(ctx context.Context) error {
	return s.client.Del(ctx, sweepLockKey).Err()
}
