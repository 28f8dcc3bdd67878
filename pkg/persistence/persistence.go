// Package persistence provides the storage abstraction for serialized
// dynamic action events.
package persistence

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
)

// EventStorage stores dynamic action events keyed by event id. GetAll
// returns events in creation order.
type EventStorage interface {
	GetAll(ctx context.Context) ([]models.SerializedEvent, error)
	Get(ctx context.Context, eventID string) (models.SerializedEvent, error)
	Create(ctx context.Context, event models.SerializedEvent) error
	Update(ctx context.Context, event models.SerializedEvent) error
	Delete(ctx context.Context, eventID string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
