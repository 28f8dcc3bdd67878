package mocks

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockEventStorage is a mock implementation of persistence.EventStorage interface.
type MockEventStorage struct {
	mock.Mock
}

var _ persistence.EventStorage = (*MockEventStorage)(nil)

func (m *MockEventStorage) GetAll(ctx context.Context) ([]models.SerializedEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.SerializedEvent), args.Error(1)
}

func (m *MockEventStorage) Get(ctx context.Context, eventID string) (models.SerializedEvent, error) {
	args := m.Called(ctx, eventID)

	return args.Get(0).(models.SerializedEvent), args.Error(1)
}

func (m *MockEventStorage) Create(ctx context.Context, event models.SerializedEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *MockEventStorage) Update(ctx context.Context, event models.SerializedEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *MockEventStorage) Delete(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)

	return args.Error(0)
}

func (m *MockEventStorage) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventStorage) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
