// Package events defines the lifecycle notifications exchanged between
// instances that share a dynamic action store.
package events

import (
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "uiactions.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DynamicActionCreatedEvent EventType = "dynamic_action.created"
	DynamicActionUpdatedEvent EventType = "dynamic_action.updated"
	DynamicActionDeletedEvent EventType = "dynamic_action.deleted"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Source identifies the publishing instance so it can skip its own events.
	Source string `json:"source"`
}

func NewBaseEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}

type DynamicActionCreated struct {
	BaseEvent

	Event models.SerializedEvent `json:"event"`
}

func (e DynamicActionCreated) GetType() EventType {
	return DynamicActionCreatedEvent
}

type DynamicActionUpdated struct {
	BaseEvent

	Event models.SerializedEvent `json:"event"`
}

func (e DynamicActionUpdated) GetType() EventType {
	return DynamicActionUpdatedEvent
}

type DynamicActionDeleted struct {
	BaseEvent

	EventID string `json:"event_id"`
}

func (e DynamicActionDeleted) GetType() EventType {
	return DynamicActionDeletedEvent
}
