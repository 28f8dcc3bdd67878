// Package notifications delivers user facing toasts by logging them and
// keeping the most recent ones for display.
package notifications

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/uiactions/pkg/protocol"
)

const DefaultCapacity = 50

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Toast struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Toasts implements protocol.Toasts.
type Toasts struct {
	logger   *slog.Logger
	capacity int

	mu     sync.RWMutex
	recent []Toast
}

var _ protocol.Toasts = (*Toasts)(nil)

// NewToasts keeps up to capacity toasts, DefaultCapacity when capacity is
// not positive.
func NewToasts(logger *slog.Logger, capacity int) *Toasts {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Toasts{
		logger:   logger.With("module", "notifications"),
		capacity: capacity,
	}
}

func (t *Toasts) AddSuccess(ctx context.Context, title, text string) {
	t.logger.InfoContext(ctx, title, "text", text)
	t.add(Toast{Kind: KindSuccess, Title: title, Text: text})
}

func (t *Toasts) AddError(ctx context.Context, err error, title string) {
	t.logger.ErrorContext(ctx, title, "error", err)

	toast := Toast{Kind: KindError, Title: title}
	if err != nil {
		toast.Error = err.Error()
	}

	t.add(toast)
}

// Recent returns the kept toasts, newest first.
func (t *Toasts) Recent() []Toast {
	t.mu.RLock()
	defer t.mu.RUnlock()

	recent := slices.Clone(t.recent)
	slices.Reverse(recent)

	return recent
}

func (t *Toasts) add(toast Toast) {
	toast.CreatedAt = time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.recent = append(t.recent, toast)
	if len(t.recent) > t.capacity {
		t.recent = slices.Delete(t.recent, 0, len(t.recent)-t.capacity)
	}
}
