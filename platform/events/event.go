// Package events is the in-process event bus modules use to react to each
// other without importing each other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName is the subscription key.
	EventName() string
	OccurredAt() time.Time
}

// Scoped events belong to one tenant. The bus tags its logs with the tenant.
type Scoped interface {
	Tenant() string
}

// BaseEvent stamps an event with its creation time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish returns immediately; handlers run in the background.
	Publish(ctx context.Context, event Event)
	// PublishSync runs every handler and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

func logFields(event Event, extra ...any) []any {
	fields := []any{"event", event.EventName()}
	if s, ok := event.(Scoped); ok {
		fields = append(fields, "organizationId", s.Tenant())
	}
	return append(fields, extra...)
}
