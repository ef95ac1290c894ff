package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mark(t *testing.T, s *InMemoryIdempotencyStore, key string, ttl time.Duration) bool {
	t.Helper()
	fresh, err := s.MarkProcessed(context.Background(), key, ttl)
	require.NoError(t, err)
	return fresh
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	s := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = s.Close() })

	assert.True(t, mark(t, s, "order_metrics:e1", time.Hour), "first delivery")
	assert.False(t, mark(t, s, "order_metrics:e1", time.Hour), "redelivery")
	assert.True(t, mark(t, s, "order_audit:e1", time.Hour), "keys are per handler")

	assert.True(t, mark(t, s, "order_metrics:e2", 5*time.Millisecond))
	time.Sleep(15 * time.Millisecond)
	assert.True(t, mark(t, s, "order_metrics:e2", time.Hour), "expired key counts as new")

	require.NoError(t, s.Forget(context.Background(), "order_metrics:e1"))
	assert.True(t, mark(t, s, "order_metrics:e1", time.Hour), "forgotten key counts as new")
}

func TestInMemoryIdempotencyStore_SweepDropsOnlyExpired(t *testing.T) {
	s := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = s.Close() })

	for _, key := range []string{"a", "b"} {
		mark(t, s, key, 5*time.Millisecond)
	}
	mark(t, s, "kept", time.Hour)
	require.Equal(t, 3, s.Size())

	time.Sleep(15 * time.Millisecond)
	s.sweep()
	assert.Equal(t, 1, s.Size())
}

// Many processors redelivering the same event: exactly one handles it
func TestInMemoryIdempotencyStore_OneWinnerUnderContention(t *testing.T) {
	s := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = s.Close() })

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Go(func() {
			if fresh, err := s.MarkProcessed(context.Background(), "kafka_relay:e9", time.Minute); err == nil && fresh {
				winners.Add(1)
			}
		})
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	s := NewInMemoryIdempotencyStore()
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
