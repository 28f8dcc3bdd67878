package dynamicactions

import (
	"context"

	"github.com/dukex/uiactions/pkg/events"
)

func (m *Manager) subscribe(ctx context.Context) error {
	handlers := map[events.EventType]func(context.Context, any) error{
		events.DynamicActionCreatedEvent: m.handleCreated,
		events.DynamicActionUpdatedEvent: m.handleUpdated,
		events.DynamicActionDeletedEvent: m.handleDeleted,
	}

	for eventType, handler := range handlers {
		err := m.bus.Handle(eventType, handler)
		if err != nil {
			return err
		}
	}

	return m.bus.Subscribe(ctx)
}

func (m *Manager) handleCreated(ctx context.Context, event any) error {
	created, ok := event.(*events.DynamicActionCreated)
	if !ok || created.Source == m.instanceID {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.registered[created.Event.EventID]; exists {
		return nil
	}

	m.logger.DebugContext(ctx, "Applying remote dynamic action", "event_id", created.Event.EventID, "source", created.Source)
	m.register(ctx, created.Event)
	m.upsertState(created.Event)

	return nil
}

func (m *Manager) handleUpdated(ctx context.Context, event any) error {
	updated, ok := event.(*events.DynamicActionUpdated)
	if !ok || updated.Source == m.instanceID {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if previous, exists := m.registered[updated.Event.EventID]; exists {
		m.unregister(previous)
	}

	m.register(ctx, updated.Event)
	m.upsertState(updated.Event)

	return nil
}

func (m *Manager) handleDeleted(ctx context.Context, event any) error {
	deleted, ok := event.(*events.DynamicActionDeleted)
	if !ok || deleted.Source == m.instanceID {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.DebugContext(ctx, "Removing remote dynamic action", "event_id", deleted.EventID, "source", deleted.Source)
	m.forget(deleted.EventID)

	return nil
}
