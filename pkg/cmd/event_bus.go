package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/uiactions/pkg/channels/gochannel"
	"github.com/dukex/uiactions/pkg/channels/kafka"
	"github.com/dukex/uiactions/pkg/eventbus"
)

// NewEventBus creates the bus dynamic action events travel on. "memory"
// keeps them in process; "kafka" shares them with every instance connected
// to brokers.
func NewEventBus(provider string, logger *slog.Logger, brokers []string, instanceID string) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "memory":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, instanceID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}
