package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/uiactions/pkg/channels/gochannel"
	"github.com/dukex/uiactions/pkg/eventbus"
	"github.com/dukex/uiactions/pkg/events"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)), pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan *events.DynamicActionCreated, 1)

	require.NoError(t, bus.Handle(events.DynamicActionCreatedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.DynamicActionCreated)

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	created := events.DynamicActionCreated{
		BaseEvent: events.NewBaseEvent(events.DynamicActionCreatedEvent, "instance-a"),
		Event: models.SerializedEvent{
			EventID:  "e1",
			Action:   models.SerializedAction{FactoryID: "URL_DRILLDOWN", Name: "Docs"},
			Triggers: []string{"VALUE_CLICK_TRIGGER"},
		},
	}
	require.NoError(t, bus.Publish(t.Context(), "e1", created))

	select {
	case got := <-received:
		assert.Equal(t, "e1", got.Event.EventID)
		assert.Equal(t, "instance-a", got.Source)
		assert.Equal(t, []string{"VALUE_CLICK_TRIGGER"}, got.Event.Triggers)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan string, 1)

	require.NoError(t, bus.Handle(events.DynamicActionDeletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.DynamicActionDeleted).EventID

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "e1", events.DynamicActionUpdated{
		BaseEvent: events.NewBaseEvent(events.DynamicActionUpdatedEvent, "instance-a"),
	}))
	require.NoError(t, bus.Publish(t.Context(), "e2", events.DynamicActionDeleted{
		BaseEvent: events.NewBaseEvent(events.DynamicActionDeletedEvent, "instance-a"),
		EventID:   "e2",
	}))

	select {
	case id := <-received:
		assert.Equal(t, "e2", id)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_HandlerErrorIsRedelivered(t *testing.T) {
	bus := newTestBus(t)
	attempts := make(chan struct{}, 2)
	failed := false

	require.NoError(t, bus.Handle(events.DynamicActionDeletedEvent, func(context.Context, any) error {
		attempts <- struct{}{}

		if !failed {
			failed = true

			return errors.New("transient")
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "e1", events.DynamicActionDeleted{
		BaseEvent: events.NewBaseEvent(events.DynamicActionDeletedEvent, "instance-a"),
		EventID:   "e1",
	}))

	for range 2 {
		select {
		case <-attempts:
		case <-time.After(5 * time.Second):
			t.Fatal("event was not redelivered")
		}
	}
}
