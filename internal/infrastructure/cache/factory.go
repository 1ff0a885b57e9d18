package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

// Stores bundles the Redis-or-memory backed stores the app needs
type Stores struct {
	Client      *redis.Client // nil when running without Redis
	Idempotency shared.IdempotencyStore
	Exchange    Cache
	Profiles    Cache
}

// Close releases the stores and the Redis connection
func (s *Stores) Close() error {
	_ = s.Idempotency.Close()
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// NewStores connects to Redis when a host is configured. Without a host,
// or when allowFallback is set and Redis is unreachable, in-memory stores
// are used. They do not share state between instances.
func NewStores(ctx context.Context, cfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (*Stores, error) {
	if cfg.Host == "" {
		logger.Warn("Redis not configured, using in-memory caches")
		return memoryStores(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !allowFallback {
			return nil, err
		}
		logger.Warn("Redis unavailable, falling back to in-memory caches", zap.Error(err))
		return memoryStores(), nil
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return &Stores{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, DefaultIdempotencyPrefix),
		Exchange:    NewRedisCache(client, "exchange:"),
		Profiles:    NewRedisCache(client, "sso:profile:"),
	}, nil
}

func memoryStores() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Exchange:    NewMemoryCache(),
		Profiles:    NewMemoryCache(),
	}
}
