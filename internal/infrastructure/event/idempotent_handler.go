package event

import (
	"context"
	"sync/atomic"

	"github.com/b2bshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Delivery outcomes reported by IdempotentHandler
const (
	OutcomeHandled   = "handled"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// DeliveryRecorder observes one outcome per delivery attempt
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, handler, eventType, outcome string)
}

// DeliveryCounts tallies outcomes in process; it is itself a DeliveryRecorder
type DeliveryCounts struct {
	handled, duplicate, failed atomic.Int64
}

func (c *DeliveryCounts) RecordDelivery(_ context.Context, _, _, outcome string) {
	switch outcome {
	case OutcomeHandled:
		c.handled.Add(1)
	case OutcomeDuplicate:
		c.duplicate.Add(1)
	case OutcomeFailed:
		c.failed.Add(1)
	}
}

func (c *DeliveryCounts) Handled() int64   { return c.handled.Load() }
func (c *DeliveryCounts) Duplicate() int64 { return c.duplicate.Load() }
func (c *DeliveryCounts) Failed() int64    { return c.failed.Load() }

// IdempotentHandler lets the wrapped subscriber see each event once.
//
// When one subscriber fails the processor redelivers the event to all of
// them, so the ones that succeeded need to recognise it. Keys are
// "<name>:<event id>"; a failed run forgets its key so the retry goes through.
type IdempotentHandler struct {
	name      string
	next      shared.EventHandler
	store     shared.IdempotencyStore
	cfg       shared.IdempotencyConfig
	log       *zap.Logger
	counts    *DeliveryCounts
	recorders []DeliveryRecorder
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.cfg = cfg }
}

// WithDeliveryRecorder adds an observer such as the OTel delivery counter
func WithDeliveryRecorder(r DeliveryRecorder) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.recorders = append(h.recorders, r) }
}

// NewIdempotentHandler wraps next under name, which must differ between subscribers
func NewIdempotentHandler(name string, next shared.EventHandler, store shared.IdempotencyStore, log *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		name:   name,
		next:   next,
		store:  store,
		cfg:    shared.DefaultIdempotencyConfig(),
		log:    log.With(zap.String("handler", name)),
		counts: &DeliveryCounts{},
	}
	h.recorders = append(h.recorders, h.counts)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Counts returns this handler's in-process outcome tally
func (h *IdempotentHandler) Counts() *DeliveryCounts {
	return h.counts
}

// Handle runs next unless the key is already marked. If the store cannot be
// reached the event is handled anyway: a duplicate beats a lost event.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.cfg.Enabled || h.store == nil {
		return h.run(ctx, event, "")
	}

	key := h.name + ":" + event.EventID().String()
	first, err := h.store.MarkProcessed(ctx, key, h.cfg.TTL)
	if err != nil {
		h.log.Warn("Idempotency store unavailable, delivering without dedup",
			zap.Stringer("event_id", event.EventID()), zap.Error(err))
		first = true
	}
	if !first {
		h.log.Debug("Skipping redelivered event",
			zap.Stringer("event_id", event.EventID()), zap.String("event_type", event.EventType()))
		h.record(ctx, event, OutcomeDuplicate)
		return nil
	}
	return h.run(ctx, event, key)
}

func (h *IdempotentHandler) run(ctx context.Context, event shared.DomainEvent, key string) error {
	if err := h.next.Handle(ctx, event); err != nil {
		h.record(ctx, event, OutcomeFailed)
		if key != "" {
			if ferr := h.store.Forget(ctx, key); ferr != nil {
				h.log.Warn("Could not release idempotency key", zap.String("key", key), zap.Error(ferr))
			}
		}
		return err
	}
	h.record(ctx, event, OutcomeHandled)
	return nil
}

func (h *IdempotentHandler) record(ctx context.Context, event shared.DomainEvent, outcome string) {
	for _, r := range h.recorders {
		r.RecordDelivery(ctx, h.name, event.EventType(), outcome)
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
