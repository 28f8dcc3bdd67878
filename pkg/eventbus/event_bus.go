// Package eventbus carries dynamic action lifecycle events between instances.
package eventbus

import (
	"context"

	"github.com/dukex/uiactions/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes events. Events sharing a key keep their order.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches received events to the handler registered
// for their type. Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the concrete event type, such as
// *events.DynamicActionCreated.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
