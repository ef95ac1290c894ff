package event

import (
	"context"
	"sync"
	"time"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OutboxProcessorConfig struct {
	// BatchSize bounds both the pending and the retry query of one pass
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor moves committed order events from outbox_events onto the bus.
// An entry becomes SENT only once every subscriber returned nil, so
// subscribers see each event at least once.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	cfg        OutboxProcessorConfig
	log        *zap.Logger

	stop context.CancelFunc
	done sync.WaitGroup
}

func NewOutboxProcessor(repo shared.OutboxRepository, bus shared.EventPublisher, serializer *EventSerializer, cfg OutboxProcessorConfig, log *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		cfg:        cfg,
		log:        log.With(zap.String("component", "outbox_processor")),
	}
}

// Start runs the relay pass every PollInterval and, if enabled, cleanup every CleanupInterval
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.stop = context.WithCancel(ctx)

	p.every(ctx, p.cfg.PollInterval, func(ctx context.Context) { p.ProcessBatch(ctx) })
	if p.cfg.CleanupEnabled {
		p.every(ctx, p.cfg.CleanupInterval, func(ctx context.Context) { _, _ = p.Cleanup(ctx) })
	}

	p.log.Info("Outbox processor started",
		zap.Int("batch_size", p.cfg.BatchSize),
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Bool("cleanup", p.cfg.CleanupEnabled),
	)
	return nil
}

func (p *OutboxProcessor) every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	p.done.Add(1)
	go func() {
		defer p.done.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				job(ctx)
			}
		}
	}()
}

// Stop ends both loops and waits for a running pass to finish, or for ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.stop != nil {
		p.stop()
	}
	finished := make(chan struct{})
	go func() {
		p.done.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.log.Info("Outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessBatch makes one relay pass: new entries first, then failed entries
// whose NextRetryAt has passed. It returns how many entries were sent.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	sent := 0
	for _, q := range []struct {
		name string
		find func() ([]*shared.OutboxEntry, error)
	}{
		{"pending", func() ([]*shared.OutboxEntry, error) { return p.repo.FindPending(ctx, p.cfg.BatchSize) }},
		{"retryable", func() ([]*shared.OutboxEntry, error) {
			return p.repo.FindRetryable(ctx, time.Now(), p.cfg.BatchSize)
		}},
	} {
		found, err := q.find()
		if err != nil {
			p.log.Error("Outbox query failed", zap.String("queue", q.name), zap.Error(err))
			return sent
		}
		sent += p.relay(ctx, found)
	}
	return sent
}

func (p *OutboxProcessor) relay(ctx context.Context, found []*shared.OutboxEntry) int {
	if len(found) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, e := range found {
		ids = append(ids, e.ID)
	}

	// Another processor may have claimed some of these; only relay what we won
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.log.Error("Outbox claim failed", zap.Int("entries", len(ids)), zap.Error(err))
		return 0
	}

	sent := 0
	for _, entry := range claimed {
		if p.deliver(ctx, entry) == nil {
			sent++
		}
	}
	return sent
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "outbox.deliver",
		attribute.String("event_type", entry.EventType),
		attribute.String("event_id", entry.EventID.String()),
		attribute.Int("retry_count", entry.RetryCount),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	fields := []zap.Field{
		zap.Stringer("event_id", entry.EventID),
		zap.String("event_type", entry.EventType),
		zap.Stringer("aggregate_id", entry.AggregateID),
	}

	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.bus.Publish(ctx, event)
	}
	if err != nil {
		entry.MarkFailed(err.Error())
		fields = append(fields, zap.Int("retry_count", entry.RetryCount), zap.Error(err))
		if entry.IsDead() {
			p.log.Warn("Outbox entry dead-lettered", fields...)
		} else {
			p.log.Error("Outbox delivery failed, will retry", append(fields, zap.Timep("next_retry_at", entry.NextRetryAt))...)
		}
		if uerr := p.repo.Update(ctx, entry); uerr != nil {
			p.log.Error("Could not record outbox failure", append(fields, zap.NamedError("update_error", uerr))...)
		}
		return err
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		// Left PROCESSING; the event was delivered but will not be resent automatically
		p.log.Error("Could not mark outbox entry sent", append(fields, zap.Error(err))...)
		return err
	}
	p.log.Debug("Outbox entry delivered", fields...)
	return nil
}

// Cleanup deletes SENT entries processed before now - CleanupRetention
func (p *OutboxProcessor) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-p.cfg.CleanupRetention)
	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	switch {
	case err != nil:
		p.log.Error("Outbox cleanup failed", zap.Error(err))
	case n > 0:
		p.log.Info("Outbox cleanup", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, err
}
