package dynamicactions_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/uiactions/pkg/channels/gochannel"
	"github.com/dukex/uiactions/pkg/dynamicactions"
	"github.com/dukex/uiactions/pkg/eventbus"
	"github.com/dukex/uiactions/pkg/mocks"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/persistence/file"
	"github.com/dukex/uiactions/pkg/registry"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	valueClick  = "VALUE_CLICK_TRIGGER"
	selectRange = "SELECT_RANGE_TRIGGER"
)

type linkDrilldown struct{}

func (linkDrilldown) ID() string                   { return "LINK" }
func (linkDrilldown) Order() int                   { return 1 }
func (linkDrilldown) DisplayName() string          { return "Go to URL" }
func (linkDrilldown) IconType() string             { return "link" }
func (linkDrilldown) MinimalLicense() string       { return "" }
func (linkDrilldown) Schema() map[string]any       { return nil }
func (linkDrilldown) CreateConfig() map[string]any { return map[string]any{"url": ""} }
func (linkDrilldown) SupportedTriggers() []string  { return []string{valueClick, selectRange} }

func (linkDrilldown) IsConfigValid(config map[string]any, _ models.FactoryContext) bool {
	return config["url"] != ""
}

func (linkDrilldown) IsCompatible(context.Context, map[string]any, models.ActionContext) (bool, error) {
	return true, nil
}

func (linkDrilldown) GetHref(_ context.Context, config map[string]any, _ models.ActionContext) (string, error) {
	href, _ := config["url"].(string)

	return href, nil
}

func (linkDrilldown) Execute(context.Context, map[string]any, models.ActionContext) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T) *uiactions.Service {
	t.Helper()

	svc := uiactions.NewService(discardLogger())
	require.NoError(t, svc.RegisterTrigger(uiactions.NewTrigger(valueClick, "Value click", "")))
	require.NoError(t, svc.RegisterTrigger(uiactions.NewTrigger(selectRange, "Select range", "")))

	return svc
}

func newFactories(t *testing.T) *registry.Registry {
	t.Helper()

	factories := registry.NewRegistry(discardLogger())
	require.NoError(t, factories.RegisterDrilldown(linkDrilldown{}, nil))

	return factories
}

func linkAction(name, url string) models.SerializedAction {
	return models.SerializedAction{FactoryID: "LINK", Name: name, Config: map[string]any{"url": url}}
}

func attachedIDs(t *testing.T, svc *uiactions.Service, triggerID string) []string {
	t.Helper()

	actions, err := svc.GetTriggerActions(triggerID)
	require.NoError(t, err)

	ids := make([]string, 0, len(actions))
	for _, action := range actions {
		ids = append(ids, action.ID())
	}

	return ids
}

func TestManager_StartRevivesStoredEvents(t *testing.T) {
	storage := file.NewPersistence(t.TempDir())
	require.NoError(t, storage.Create(t.Context(), models.SerializedEvent{
		EventID:  "known",
		Action:   linkAction("Docs", "https://example.com"),
		Triggers: []string{valueClick},
	}))
	require.NoError(t, storage.Create(t.Context(), models.SerializedEvent{
		EventID:  "orphan",
		Action:   models.SerializedAction{FactoryID: "GONE", Name: "Old"},
		Triggers: []string{valueClick},
	}))

	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), storage, svc, newFactories(t))

	require.NoError(t, manager.Start(t.Context()))

	assert.Equal(t, []string{"known"}, attachedIDs(t, svc, valueClick))
	assert.Len(t, manager.List(), 2)

	state := manager.State().Get()
	assert.False(t, state.IsFetchingEvents)
	assert.Equal(t, 1, state.FetchCount)
	assert.Empty(t, state.FetchError)

	action, err := svc.GetAction("known")
	require.NoError(t, err)
	assert.Equal(t, "Docs", action.GetDisplayName(t.Context(), nil))
}

func TestManager_CreateUpdateDelete(t *testing.T) {
	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), file.NewPersistence(t.TempDir()), svc, newFactories(t))
	require.NoError(t, manager.Start(t.Context()))

	var notified []int

	unsubscribe := manager.State().Subscribe(func(s dynamicactions.State) {
		notified = append(notified, len(s.Events))
	})
	defer unsubscribe()

	event, err := manager.CreateEvent(t.Context(), linkAction("Docs", "https://example.com"), []string{valueClick})
	require.NoError(t, err)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, []string{event.EventID}, attachedIDs(t, svc, valueClick))
	assert.Equal(t, 1, manager.Count())

	err = manager.UpdateEvent(t.Context(), event.EventID, linkAction("Renamed", "https://example.org"), []string{selectRange})
	require.NoError(t, err)
	assert.Empty(t, attachedIDs(t, svc, valueClick))
	assert.Equal(t, []string{event.EventID}, attachedIDs(t, svc, selectRange))

	action, err := svc.GetAction(event.EventID)
	require.NoError(t, err)
	href, err := action.GetHref(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", href)
	assert.Equal(t, "Renamed", manager.List()[0].Action.Name)

	require.NoError(t, manager.DeleteEvents(t.Context(), []string{event.EventID}))
	assert.False(t, svc.HasAction(event.EventID))
	assert.Empty(t, attachedIDs(t, svc, selectRange))
	assert.Zero(t, manager.Count())

	assert.Equal(t, []int{1, 1, 0}, notified)
}

func TestManager_DeleteEventsJoinsErrors(t *testing.T) {
	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), file.NewPersistence(t.TempDir()), svc, newFactories(t))

	event, err := manager.CreateEvent(t.Context(), linkAction("Docs", "https://example.com"), []string{valueClick})
	require.NoError(t, err)

	err = manager.DeleteEvents(t.Context(), []string{"missing", event.EventID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Zero(t, manager.Count())
}

func TestManager_CreateFailureLeavesNothingRegistered(t *testing.T) {
	storage := &mocks.MockEventStorage{}
	storage.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), storage, svc, newFactories(t))

	_, err := manager.CreateEvent(t.Context(), linkAction("Docs", "https://example.com"), []string{valueClick})
	require.EqualError(t, err, "disk full")

	assert.Empty(t, svc.Actions())
	assert.Zero(t, manager.Count())
	storage.AssertExpectations(t)
}

func TestManager_FetchFailure(t *testing.T) {
	storage := &mocks.MockEventStorage{}
	storage.On("GetAll", mock.Anything).Return(nil, errors.New("connection refused"))

	manager := dynamicactions.NewManager(discardLogger(), storage, newService(t), newFactories(t))

	err := manager.Start(t.Context())
	require.Error(t, err)

	state := manager.State().Get()
	assert.False(t, state.IsFetchingEvents)
	assert.Equal(t, "connection refused", state.FetchError)
	assert.Equal(t, 1, state.FetchCount)
}

func TestManager_Stop(t *testing.T) {
	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), file.NewPersistence(t.TempDir()), svc, newFactories(t))

	event, err := manager.CreateEvent(t.Context(), linkAction("Docs", "https://example.com"), []string{valueClick})
	require.NoError(t, err)

	manager.Stop(t.Context())

	assert.False(t, svc.HasAction(event.EventID))
	assert.Empty(t, attachedIDs(t, svc, valueClick))
}

func TestManager_FollowsOtherInstances(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	storage := file.NewPersistence(t.TempDir())

	writerService := newService(t)
	writer := dynamicactions.NewManager(discardLogger(), storage, writerService, newFactories(t),
		dynamicactions.WithEventBus(eventbus.NewWatermillEventBus(discardLogger(), pub, sub)),
		dynamicactions.WithInstanceID("writer"))

	readerService := newService(t)
	reader := dynamicactions.NewManager(discardLogger(), storage, readerService, newFactories(t),
		dynamicactions.WithEventBus(eventbus.NewWatermillEventBus(discardLogger(), pub, sub)),
		dynamicactions.WithInstanceID("reader"))

	require.NoError(t, reader.Start(t.Context()))
	require.NoError(t, writer.Start(t.Context()))

	event, err := writer.CreateEvent(t.Context(), linkAction("Docs", "https://example.com"), []string{valueClick})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return readerService.HasAction(event.EventID) && reader.Count() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, writer.Count())

	require.NoError(t, writer.UpdateEvent(t.Context(), event.EventID, linkAction("Renamed", "https://example.org"), []string{selectRange}))

	assert.Eventually(t, func() bool {
		events := reader.List()
		if len(events) != 1 || events[0].Action.Name != "Renamed" {
			return false
		}

		actions, err := readerService.GetTriggerActions(selectRange)

		return err == nil && len(actions) == 1 && actions[0].ID() == event.EventID
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, attachedIDs(t, readerService, valueClick))

	require.NoError(t, writer.DeleteEvent(t.Context(), event.EventID))

	assert.Eventually(t, func() bool {
		return !readerService.HasAction(event.EventID) && reader.Count() == 0
	}, 5*time.Second, 10*time.Millisecond)

	reader.Stop(t.Context())
	writer.Stop(t.Context())
}

func TestManager_SubscribeFailure(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(errors.New("broker unavailable"))

	manager := dynamicactions.NewManager(discardLogger(), file.NewPersistence(t.TempDir()), newService(t), newFactories(t),
		dynamicactions.WithEventBus(bus),
	)

	err := manager.Start(t.Context())
	require.ErrorContains(t, err, "broker unavailable")
	bus.AssertNumberOfCalls(t, "Handle", 3)
}

func TestManager_PublishFailureKeepsEvent(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(nil)
	bus.On("Subscribe", mock.Anything).Return(nil)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	svc := newService(t)
	manager := dynamicactions.NewManager(discardLogger(), file.NewPersistence(t.TempDir()), svc, newFactories(t),
		dynamicactions.WithEventBus(bus),
		dynamicactions.WithInstanceID("instance-a"),
	)
	require.NoError(t, manager.Start(t.Context()))

	event, err := manager.CreateEvent(t.Context(), linkAction("Docs", "https://docs"), []string{valueClick})
	require.NoError(t, err)

	assert.Equal(t, 1, manager.Count())
	assert.Equal(t, []string{event.EventID}, attachedIDs(t, svc, valueClick))
	bus.AssertCalled(t, "Publish", mock.Anything, event.EventID, mock.Anything)
}
