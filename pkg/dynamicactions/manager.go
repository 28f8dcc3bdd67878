// Package dynamicactions keeps the persisted dynamic action events and the
// runtime actions revived from them in sync.
package dynamicactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/uiactions/pkg/eventbus"
	"github.com/dukex/uiactions/pkg/events"
	"github.com/dukex/uiactions/pkg/metrics"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/observable"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/google/uuid"
)

// State is the observable state of a Manager.
type State struct {
	IsFetchingEvents bool                     `json:"is_fetching_events"`
	FetchCount       int                      `json:"fetch_count"`
	FetchError       string                   `json:"fetch_error,omitempty"`
	Events           []models.SerializedEvent `json:"events"`
}

// FactoryLookup resolves an action factory by id.
type FactoryLookup interface {
	Get(id string) (protocol.ActionFactory, error)
}

type Option func(*Manager)

// WithEventBus shares lifecycle events with other instances through bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = collector
	}
}

// WithInstanceID overrides the generated instance id.
func WithInstanceID(id string) Option {
	return func(m *Manager) {
		m.instanceID = id
	}
}

// Manager persists dynamic action events and registers the action revived
// from each one in the service, attached to the event's triggers.
type Manager struct {
	logger     *slog.Logger
	storage    persistence.EventStorage
	service    *uiactions.Service
	factories  FactoryLookup
	bus        eventbus.EventBus
	metrics    *metrics.Collector
	instanceID string

	state *observable.Value[State]

	mu         sync.Mutex
	registered map[string]models.SerializedEvent
	cancel     context.CancelFunc
}

func NewManager(
	logger *slog.Logger,
	storage persistence.EventStorage,
	service *uiactions.Service,
	factories FactoryLookup,
	opts ...Option,
) *Manager {
	m := &Manager{
		logger:     logger.With("module", "dynamicactions"),
		storage:    storage,
		service:    service,
		factories:  factories,
		instanceID: uuid.New().String(),
		state:      observable.New(State{Events: []models.SerializedEvent{}}),
		registered: make(map[string]models.SerializedEvent),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the observable manager state.
func (m *Manager) State() *observable.Value[State] {
	return m.state
}

func (m *Manager) InstanceID() string {
	return m.instanceID
}

// Start loads every stored event and, with an event bus, follows the
// changes other instances make.
func (m *Manager) Start(ctx context.Context) error {
	if m.bus != nil {
		subCtx, cancel := context.WithCancel(ctx)

		m.mu.Lock()
		m.cancel = cancel
		m.mu.Unlock()

		err := m.subscribe(subCtx)
		if err != nil {
			cancel()

			return fmt.Errorf("failed to subscribe to dynamic action events: %w", err)
		}
	}

	return m.Reload(ctx)
}

// Reload replaces the registered dynamic actions with the stored events.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Update(func(s State) State {
		s.IsFetchingEvents = true
		s.FetchCount++

		return s
	})

	stored, err := m.storage.GetAll(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to fetch dynamic action events", "error", err)
		m.metrics.ObserveDynamicActionError("fetch")
		m.state.Update(func(s State) State {
			s.IsFetchingEvents = false
			s.FetchError = err.Error()

			return s
		})

		return err
	}

	for _, event := range m.registered {
		m.unregister(event)
	}

	for _, event := range stored {
		m.register(ctx, event)
	}

	m.state.Update(func(s State) State {
		s.IsFetchingEvents = false
		s.FetchError = ""
		s.Events = stored

		return s
	})
	m.metrics.SetDynamicActions(len(stored))

	m.logger.InfoContext(ctx, "Loaded dynamic actions", "count", len(stored))

	return nil
}

// CreateEvent stores a new event for action bound to triggers and
// registers its runtime action.
func (m *Manager) CreateEvent(ctx context.Context, action models.SerializedAction, triggers []string) (models.SerializedEvent, error) {
	event := models.SerializedEvent{
		EventID:  uuid.New().String(),
		Action:   action,
		Triggers: slices.Clone(triggers),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.storage.Create(ctx, event)
	if err != nil {
		m.metrics.ObserveDynamicActionError("create")

		return models.SerializedEvent{}, err
	}

	m.register(ctx, event)
	m.upsertState(event)
	m.publish(ctx, event.EventID, events.DynamicActionCreated{
		BaseEvent: events.NewBaseEvent(events.DynamicActionCreatedEvent, m.instanceID),
		Event:     event,
	})

	return event, nil
}

// UpdateEvent replaces the action and triggers of an existing event.
func (m *Manager) UpdateEvent(ctx context.Context, eventID string, action models.SerializedAction, triggers []string) error {
	event := models.SerializedEvent{
		EventID:  eventID,
		Action:   action,
		Triggers: slices.Clone(triggers),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.storage.Update(ctx, event)
	if err != nil {
		m.metrics.ObserveDynamicActionError("update")

		return err
	}

	if previous, ok := m.registered[eventID]; ok {
		m.unregister(previous)
	}

	m.register(ctx, event)
	m.upsertState(event)
	m.publish(ctx, eventID, events.DynamicActionUpdated{
		BaseEvent: events.NewBaseEvent(events.DynamicActionUpdatedEvent, m.instanceID),
		Event:     event,
	})

	return nil
}

func (m *Manager) DeleteEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteEvent(ctx, eventID)
}

// DeleteEvents deletes every id, continuing past failures, and returns
// the joined errors.
func (m *Manager) DeleteEvents(ctx context.Context, eventIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error

	for _, eventID := range eventIDs {
		err := m.deleteEvent(ctx, eventID)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// List returns the known events in creation order.
func (m *Manager) List() []models.SerializedEvent {
	return slices.Clone(m.state.Get().Events)
}

func (m *Manager) Count() int {
	return len(m.state.Get().Events)
}

// Stop stops following other instances and unregisters every dynamic action.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	for _, event := range m.registered {
		m.unregister(event)
	}

	m.logger.InfoContext(ctx, "Stopped dynamic action manager")
}

func (m *Manager) deleteEvent(ctx context.Context, eventID string) error {
	err := m.storage.Delete(ctx, eventID)
	if err != nil {
		m.metrics.ObserveDynamicActionError("delete")

		return err
	}

	m.forget(eventID)
	m.publish(ctx, eventID, events.DynamicActionDeleted{
		BaseEvent: events.NewBaseEvent(events.DynamicActionDeletedEvent, m.instanceID),
		EventID:   eventID,
	})

	return nil
}

func (m *Manager) forget(eventID string) {
	if previous, ok := m.registered[eventID]; ok {
		m.unregister(previous)
	}

	m.state.Update(func(s State) State {
		s.Events = slices.DeleteFunc(slices.Clone(s.Events), func(e models.SerializedEvent) bool {
			return e.EventID == eventID
		})

		return s
	})
	m.metrics.SetDynamicActions(len(m.state.Get().Events))
}

// register revives event into a runtime action. Events whose factory is
// unknown stay listed but register nothing.
func (m *Manager) register(ctx context.Context, event models.SerializedEvent) {
	logger := m.logger.With("event_id", event.EventID, "factory_id", event.Action.FactoryID)

	factory, err := m.factories.Get(event.Action.FactoryID)
	if err != nil {
		logger.WarnContext(ctx, "Skipping dynamic action with unknown factory")
		m.metrics.ObserveDynamicActionError("revive")

		return
	}

	action, err := factory.Create(event.EventID, event.Action)
	if err != nil {
		logger.WarnContext(ctx, "Failed to revive dynamic action", "error", err)
		m.metrics.ObserveDynamicActionError("revive")

		return
	}

	err = m.service.RegisterAction(action)
	if err != nil {
		logger.WarnContext(ctx, "Failed to register dynamic action", "error", err)
		m.metrics.ObserveDynamicActionError("revive")

		return
	}

	for _, triggerID := range event.Triggers {
		err := m.service.AttachAction(triggerID, event.EventID)
		if err != nil {
			logger.WarnContext(ctx, "Dynamic action bound to unknown trigger", "trigger_id", triggerID)
		}
	}

	m.registered[event.EventID] = event
}

func (m *Manager) unregister(event models.SerializedEvent) {
	for _, triggerID := range event.Triggers {
		_ = m.service.DetachAction(triggerID, event.EventID)
	}

	_ = m.service.UnregisterAction(event.EventID)

	delete(m.registered, event.EventID)
}

func (m *Manager) upsertState(event models.SerializedEvent) {
	m.state.Update(func(s State) State {
		next := slices.Clone(s.Events)

		i := slices.IndexFunc(next, func(e models.SerializedEvent) bool {
			return e.EventID == event.EventID
		})
		if i >= 0 {
			next[i] = event
		} else {
			next = append(next, event)
		}

		s.Events = next

		return s
	})
	m.metrics.SetDynamicActions(len(m.state.Get().Events))
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.bus == nil {
		return
	}

	err := m.bus.Publish(ctx, key, event)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish dynamic action event", "event_type", event.GetType(), "error", err)
	}
}
