package event

import (
	"context"
	"errors"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errEntryNotFound = shared.NewDomainError("ENTRY_NOT_FOUND", "Outbox entry not found")
	errEntryNotDead  = shared.NewDomainError("INVALID_STATUS", "Only dead-lettered entries can be retried")
)

// OutboxService lets staff inspect order event delivery and requeue dead letters
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryDTO is an entry without its payload
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsDTO counts entries per delivery state
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

const (
	defaultDeadPageSize = 20
	maxDeadPageSize     = 100
)

// ListDead pages through entries that exhausted their retries, most recent first
func (s *OutboxService) ListDead(ctx context.Context, filter OutboxFilter) ([]OutboxEntryDTO, int64, error) {
	size := filter.PageSize
	switch {
	case size < 1:
		size = defaultDeadPageSize
	case size > maxDeadPageSize:
		size = maxDeadPageSize
	}

	entries, total, err := s.repo.FindDead(ctx, max(filter.Page, 1), size)
	if err != nil {
		s.logger.Error("Listing dead outbox entries failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]OutboxEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toOutboxEntryDTO(e))
	}
	return out, total, nil
}

// Retry puts a dead entry back to PENDING so the processor picks it up on its next pass
func (s *OutboxService) Retry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, errEntryNotFound
	case err != nil:
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, errEntryNotDead.WithDetails(map[string]any{"status": string(entry.Status)})
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Requeueing outbox entry failed", zap.Stringer("entry_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Dead outbox entry requeued",
		zap.Stringer("entry_id", id),
		zap.Stringer("event_id", entry.EventID),
		zap.String("event_type", entry.EventType),
	)
	out := toOutboxEntryDTO(entry)
	return &out, nil
}

// Stats counts entries in each delivery state
func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &OutboxStatsDTO{}
	for status, n := range counts {
		stats.Total += n
		switch status {
		case shared.OutboxStatusPending:
			stats.Pending = n
		case shared.OutboxStatusProcessing:
			stats.Processing = n
		case shared.OutboxStatusSent:
			stats.Sent = n
		case shared.OutboxStatusFailed:
			stats.Failed = n
		case shared.OutboxStatusDead:
			stats.Dead = n
		}
	}
	return stats, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		CreatedAt:     entry.CreatedAt,
	}
}
