package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix      = "retail:"
	memorySweepInterval = 5 * time.Minute
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewStore builds the configured backend. With the redis backend and
// AllowMemoryFallback set, an unreachable Redis degrades to the memory store
// with a warning instead of failing startup.
func NewStore(ctx context.Context, cfg config.CacheConfig, client redis.UniversalClient, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.CacheBackendMemory:
		logger.Info("using in-memory cache store")
		return NewMemoryStore(memorySweepInterval), nil
	case config.CacheBackendRedis:
		err := fmt.Errorf("redis cache backend selected but no client configured")
		if client != nil {
			store := NewRedisStore(client, redisKeyPrefix)
			if err = store.Ping(ctx); err == nil {
				logger.Info("using Redis cache store")
				return store, nil
			}
		}
		if !cfg.AllowMemoryFallback {
			return nil, fmt.Errorf("redis cache backend unavailable: %w", err)
		}
		logger.Warn("Redis unavailable, falling back to in-memory cache store. "+
			"Idempotency claims will not be shared between instances.", zap.Error(err))
		return NewMemoryStore(memorySweepInterval), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
