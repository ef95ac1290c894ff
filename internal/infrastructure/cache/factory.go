package cache

import (
	"context"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CartLocker serializes cart mutations per customer
type CartLocker interface {
	WithLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error
}

// Backends bundles the Redis-backed coordination primitives, or their
// in-process fallbacks when Redis is not configured or unreachable.
type Backends struct {
	Client      *redis.Client // nil on fallback
	Idempotency shared.IdempotencyStore
	CartLocker  CartLocker
}

// FactoryOption is a functional option for NewBackends
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	allowFallback bool
}

// WithInMemoryFallback controls whether an unreachable Redis is fatal. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(o *factoryOptions) {
		o.allowFallback = allow
	}
}

// NewBackends connects to Redis when a host is configured
func NewBackends(ctx context.Context, redisCfg config.RedisConfig, cartCfg config.CartConfig, logger *zap.Logger, opts ...FactoryOption) (*Backends, error) {
	o := factoryOptions{allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if redisCfg.Addr() != "" {
		client, err := NewRedisClient(ctx, redisCfg)
		if err == nil {
			logger.Info("using Redis for cart locks and event idempotency", zap.String("addr", redisCfg.Addr()))
			return &Backends{
				Client:      client,
				Idempotency: NewRedisIdempotencyStore(client, ""),
				CartLocker:  NewRedisCartLocker(client, cartCfg.LockTTL, cartCfg.LockWait),
			}, nil
		}
		if !o.allowFallback {
			return nil, err
		}
		logger.Warn("Redis unavailable, falling back to in-process cart locks and idempotency; "+
			"run a single instance only", zap.Error(err))
	}

	return &Backends{
		Idempotency: NewInMemoryIdempotencyStore(),
		CartLocker:  NewInMemoryCartLocker(cartCfg.LockWait),
	}, nil
}

// Close releases the idempotency store and the Redis connection
func (b *Backends) Close() error {
	err := b.Idempotency.Close()
	if b.Client != nil {
		if cerr := b.Client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var (
	_ CartLocker = (*RedisCartLocker)(nil)
	_ CartLocker = (*InMemoryCartLocker)(nil)
)
