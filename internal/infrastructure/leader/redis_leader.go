package leader

import (
	"context"
	"sync/atomic"
	"time"

	"live-voting/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	extendScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("PEXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `
	releaseScript = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `
)

// RedisLease elects one holder among processes sharing a Redis key. The
// holder refreshes the key every ttl/3; everyone else retries at the same
// pace and takes over once the key expires.
type RedisLease struct {
	client   *redis.Client
	key      string
	holderID string
	ttl      time.Duration
	log      logger.Logger

	held atomic.Bool
}

func NewRedisLease(client *redis.Client, key, holderID string, ttl time.Duration, log logger.Logger) *RedisLease {
	return &RedisLease{
		client:   client,
		key:      key,
		holderID: holderID,
		ttl:      ttl,
		log:      log,
	}
}

// Held reports whether this process held the lease at its last refresh.
func (l *RedisLease) Held() bool {
	return l.held.Load()
}

// Run acquires or refreshes the lease until ctx is cancelled, then releases it.
func (l *RedisLease) Run(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	l.refresh(ctx)
	for {
		select {
		case <-ticker.C:
			l.refresh(ctx)
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := l.Release(releaseCtx); err != nil {
				l.log.Error("Failed to release lease", "key", l.key, "error", err)
			}
			cancel()
			return
		}
	}
}

func (l *RedisLease) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, l.ttl/3)
	defer cancel()

	if l.held.Load() {
		result, err := l.client.Eval(ctx, extendScript, []string{l.key},
			l.holderID, l.ttl.Milliseconds()).Int64()
		if err != nil || result == 0 {
			l.held.Store(false)
			l.log.Warn("Lost lease", "key", l.key, "holder", l.holderID, "error", err)
		}
		return
	}

	acquired, err := l.client.SetNX(ctx, l.key, l.holderID, l.ttl).Result()
	if err != nil {
		l.log.Error("Failed to acquire lease", "key", l.key, "error", err)
		return
	}
	if acquired {
		l.held.Store(true)
		l.log.Info("Acquired lease", "key", l.key, "holder", l.holderID)
	}
}

// Release deletes the key if this process still holds it.
func (l *RedisLease) Release(ctx context.Context) error {
	l.held.Store(false)
	return l.client.Eval(ctx, releaseScript, []string{l.key}, l.holderID).Err()
}
