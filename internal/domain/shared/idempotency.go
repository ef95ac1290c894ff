package shared

import (
	"context"
	"time"
)

// IdempotencyStore is a set of keys with expiry, shared by every instance
// that consumes the same events.
type IdempotencyStore interface {
	// MarkProcessed adds key for ttl and reports whether it was absent
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget drops key so the next delivery of that event is handled again
	Forget(ctx context.Context, key string) error
	Close() error
}

type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration // outlives the outbox retry schedule
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: 24 * time.Hour}
}
