package mocks

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockToasts is a mock implementation of protocol.Toasts interface.
type MockToasts struct {
	mock.Mock
}

var _ protocol.Toasts = (*MockToasts)(nil)

func (m *MockToasts) AddSuccess(ctx context.Context, title, text string) {
	m.Called(ctx, title, text)
}

func (m *MockToasts) AddError(ctx context.Context, err error, title string) {
	m.Called(ctx, err, title)
}

// MockKeyValueStorage is a mock implementation of protocol.KeyValueStorage interface.
type MockKeyValueStorage struct {
	mock.Mock
}

var _ protocol.KeyValueStorage = (*MockKeyValueStorage)(nil)

func (m *MockKeyValueStorage) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)

	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKeyValueStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)

	return args.Error(0)
}

// MockNavigator is a mock implementation of protocol.Navigator interface.
type MockNavigator struct {
	mock.Mock
}

var _ protocol.Navigator = (*MockNavigator)(nil)

func (m *MockNavigator) Navigate(ctx context.Context, href string) error {
	args := m.Called(ctx, href)

	return args.Error(0)
}

// MockOverlay is a mock implementation of protocol.Overlay interface.
type MockOverlay struct {
	mock.Mock
}

var _ protocol.Overlay = (*MockOverlay)(nil)

func (m *MockOverlay) Open(ctx context.Context, panel *models.ContextMenuPanel) (protocol.OverlaySession, error) {
	args := m.Called(ctx, panel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(protocol.OverlaySession), args.Error(1)
}
