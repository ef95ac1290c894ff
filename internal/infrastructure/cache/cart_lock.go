package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCartBusy is returned when a cart lock cannot be acquired within the wait budget
var ErrCartBusy = shared.ErrConcurrencyConflict.WithDetails(map[string]any{
	"reason": "cart is being updated by another request, retry shortly",
})

const cartLockPrefix = "b2b:cart-lock:"

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCartLocker serializes mutations of one customer's cart across server instances.
// A holder that outlives ttl loses the lock; the cart's version check still rejects
// its stale write.
type RedisCartLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisCartLocker creates a locker holding locks for at most ttl and waiting up to wait
func NewRedisCartLocker(client *redis.Client, ttl, wait time.Duration) *RedisCartLocker {
	return &RedisCartLocker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// WithLock runs fn while holding the customer's cart lock
func (l *RedisCartLocker) WithLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	key := cartLockPrefix + customerID.String()
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		// release even if ctx was cancelled mid-operation
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}()

	return fn(ctx)
}

func (l *RedisCartLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrCartBusy
		case <-time.After(l.retry):
		}
	}
}

// InMemoryCartLocker is the single-instance fallback when Redis is not configured
type InMemoryCartLocker struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[uuid.UUID]*cartSlot
}

type cartSlot struct {
	sem  chan struct{}
	refs int
}

// NewInMemoryCartLocker creates a locker that waits up to wait for a busy cart
func NewInMemoryCartLocker(wait time.Duration) *InMemoryCartLocker {
	return &InMemoryCartLocker{wait: wait, slots: make(map[uuid.UUID]*cartSlot)}
}

// WithLock runs fn while holding the customer's cart lock
func (l *InMemoryCartLocker) WithLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	slot := l.ref(customerID)
	defer l.unref(customerID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrCartBusy
	}
	defer func() { <-slot.sem }()

	return fn(ctx)
}

func (l *InMemoryCartLocker) ref(id uuid.UUID) *cartSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &cartSlot{sem: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

func (l *InMemoryCartLocker) unref(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot := l.slots[id]; slot != nil {
		slot.refs--
		if slot.refs == 0 {
			delete(l.slots, id)
		}
	}
}
