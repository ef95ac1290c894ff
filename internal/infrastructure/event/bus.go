package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/b2bshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus calls subscribers inline on the publishing goroutine.
// The outbox processor is its only publisher: an error returned from
// Publish leaves the outbox entry queued for another attempt.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	log      *zap.Logger
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{registry: NewHandlerRegistry(), log: log.Named("event_bus")}
}

// Publish gives each event to every matching subscriber. A failing
// subscriber does not stop the others; all failures come back joined.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var failed []error
	for _, ev := range events {
		for _, h := range b.registry.GetHandlers(ev.EventType()) {
			err := safeHandle(ctx, h, ev)
			if err == nil {
				continue
			}
			b.log.Error("Subscriber failed",
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Stringer("aggregate_id", ev.AggregateID()),
				zap.Error(err),
			)
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}

// Subscribe registers h for eventTypes; with none given, for h.EventTypes()
func (b *InMemoryEventBus) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	b.registry.Register(h, eventTypes...)
	b.log.Debug("Subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(h shared.EventHandler) {
	b.registry.Unregister(h)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.log.Info("Event bus ready", zap.Int("subscribers", len(b.registry.GetAllHandlers())))
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	return nil
}

// safeHandle reports a subscriber panic as that subscriber's error
func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panicked on %s: %v", ev.EventType(), p)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)
