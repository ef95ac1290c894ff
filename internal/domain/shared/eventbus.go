package shared

import "context"

// EventHandler is a subscriber on the event bus. The outbox redelivers on
// any subscriber failure, so Handle may see the same event more than once.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string // nil subscribes to every type
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// OutboxEventSaver appends events to the outbox through tx, the handle of
// the unit of work that produced them.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, tx any, events ...DomainEvent) error
}
