// Package storage provides key/value stores for small pieces of UI state,
// such as whether the drilldown welcome message was dismissed.
package storage

import (
	"context"
	"sync"

	"github.com/dukex/uiactions/pkg/protocol"
)

// Memory is a process local key/value store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ protocol.KeyValueStorage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]

	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}

func (m *Memory) HealthCheck(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
