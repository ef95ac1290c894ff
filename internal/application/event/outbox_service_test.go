package event

import (
	"context"
	"testing"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.IsDead() {
			dead = append(dead, e)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, int64(len(dead)), nil
	}
	return dead[start:min(start+pageSize, len(dead))], int64(len(dead)), nil
}

func (r *memOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *memOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type placedEvent struct {
	shared.BaseDomainEvent
}

func seedEntry(t *testing.T, repo *memOutboxRepo, dead bool) *shared.OutboxEntry {
	t.Helper()
	ev := &placedEvent{BaseDomainEvent: shared.NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())}
	entry := shared.NewOutboxEntry(ev, []byte(`{}`))
	if dead {
		entry.MaxRetries = 1
		entry.MarkFailed("kafka: leader not available")
	}
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestOutboxService_Stats(t *testing.T) {
	repo := newMemOutboxRepo()
	seedEntry(t, repo, false)
	seedEntry(t, repo, false)
	seedEntry(t, repo, true)

	stats, err := NewOutboxService(repo, zap.NewNop()).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(3), stats.Total)
}

func TestOutboxService_ListDead(t *testing.T) {
	repo := newMemOutboxRepo()
	seedEntry(t, repo, false)
	dead := seedEntry(t, repo, true)

	entries, total, err := NewOutboxService(repo, zap.NewNop()).ListDead(context.Background(), OutboxFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, dead.ID, entries[0].ID)
	assert.Equal(t, "kafka: leader not available", entries[0].LastError)
}

func TestOutboxService_Retry(t *testing.T) {
	repo := newMemOutboxRepo()
	svc := NewOutboxService(repo, zap.NewNop())

	t.Run("dead entry is requeued", func(t *testing.T) {
		dead := seedEntry(t, repo, true)
		dto, err := svc.Retry(context.Background(), dead.ID)
		require.NoError(t, err)
		assert.Equal(t, string(shared.OutboxStatusPending), dto.Status)
		assert.Equal(t, 0, dto.RetryCount)
	})

	t.Run("pending entry cannot be requeued", func(t *testing.T) {
		pending := seedEntry(t, repo, false)
		_, err := svc.Retry(context.Background(), pending.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATUS", de.Code)
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := svc.Retry(context.Background(), uuid.New())
		assert.ErrorIs(t, err, errEntryNotFound)
	})
}
