// Package lock provides best-effort distributed locks. A lock narrows the
// window for concurrent work on one key across instances; correctness still
// rests on the database row locks taken inside the transaction.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrNotObtained is returned when another holder owns the key
var ErrNotObtained = errors.New("lock not obtained")

const keyPrefix = "retail:lock:"

// RedisLocker obtains locks through bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	retry  redislock.RetryStrategy
}

// NewRedisLocker creates a locker that retries every backoff until the
// caller's context is done or the lock is obtained.
func NewRedisLocker(client redis.UniversalClient, backoff time.Duration) *RedisLocker {
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	return &RedisLocker{
		client: redislock.New(client),
		retry:  redislock.LinearBackoff(backoff),
	}
}

// Acquire obtains key for ttl. The returned release func is safe to call
// once the lock has expired.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	// Bound the wait by the lock's own lifetime.
	waitCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, keyPrefix+key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// The request context may already be cancelled when release runs.
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.L(ctx).Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// NopLocker grants every lock immediately. Used when no Redis is configured.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
