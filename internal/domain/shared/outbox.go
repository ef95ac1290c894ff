package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is where an entry is in its delivery life:
// PENDING -> PROCESSING -> SENT, or -> FAILED (retry) -> ... -> DEAD.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// claimable reports whether a processor may pick the entry up
func (s OutboxStatus) claimable() bool {
	return s == OutboxStatusPending || s == OutboxStatusFailed
}

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	// MaxRetryBackoff caps the delay between two delivery attempts
	MaxRetryBackoff = 5 * time.Minute
)

var (
	errNotClaimable = errors.New("outbox entry is not pending or failed")
	errNotDead      = errors.New("outbox entry is not dead-lettered")
)

// OutboxEntry holds one serialized domain event. It is inserted by the
// transaction that changed the aggregate, so an event exists iff its change committed.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	at := time.Now()
	e := &OutboxEntry{
		ID:         uuid.New(),
		Payload:    payload,
		Status:     OutboxStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	e.EventID, e.EventType = event.EventID(), event.EventType()
	e.AggregateID, e.AggregateType = event.AggregateID(), event.AggregateType()
	return e
}

func (e *OutboxEntry) transition(to OutboxStatus) time.Time {
	at := time.Now()
	e.Status = to
	e.UpdatedAt = at
	return at
}

// CanRetry is true for a failed entry that has not used its whole budget
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) MarkProcessing() error {
	if !e.Status.claimable() {
		return errNotClaimable
	}
	e.transition(OutboxStatusProcessing)
	return nil
}

func (e *OutboxEntry) MarkSent() {
	at := e.transition(OutboxStatusSent)
	e.ProcessedAt = &at
}

// MarkFailed counts an attempt. The entry goes DEAD when the budget is spent,
// otherwise it becomes FAILED with NextRetryAt pushed out by RetryBackoff.
func (e *OutboxEntry) MarkFailed(cause string) {
	e.RetryCount++
	e.LastError = cause
	if e.RetryCount >= e.MaxRetries {
		e.transition(OutboxStatusDead)
		e.NextRetryAt = nil
		return
	}
	due := e.transition(OutboxStatusFailed).Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &due
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// ResetForRetry requeues a dead entry with its retry count cleared
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return errNotDead
	}
	e.transition(OutboxStatusPending)
	e.RetryCount, e.LastError, e.NextRetryAt = 0, "", nil
	return nil
}

// RetryBackoff is the delay after the given attempt: 1s, 2s, 4s, ... up to MaxRetryBackoff
func RetryBackoff(attempt int) time.Duration {
	d := DefaultBaseBackoff
	for i := 1; i < attempt && d < MaxRetryBackoff; i++ {
		d *= 2
	}
	return min(d, MaxRetryBackoff)
}

// OutboxRepository stores outbox entries for the processor and the admin endpoints
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// MarkProcessing claims whichever of ids are still claimable and not locked
	// by another processor, and returns only those.
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
