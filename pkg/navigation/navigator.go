// Package navigation records where actions send the user. With no browser
// to drive, a navigation is a location handed back to the caller that
// fired the trigger.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/dukex/uiactions/pkg/protocol"
)

var ErrInvalidLocation = errors.New("invalid location")

type locationKey struct{}

// Location receives the href of a navigation made with its context.
type Location struct {
	mu   sync.Mutex
	href string
}

func (l *Location) Href() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.href
}

func (l *Location) set(href string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.href = href
}

// WithLocation returns a context whose navigations are recorded in the
// returned Location.
func WithLocation(ctx context.Context) (context.Context, *Location) {
	location := &Location{}

	return context.WithValue(ctx, locationKey{}, location), location
}

// Navigator implements protocol.Navigator by recording locations.
type Navigator struct {
	logger *slog.Logger

	mu      sync.RWMutex
	current string
}

var _ protocol.Navigator = (*Navigator)(nil)

func NewNavigator(logger *slog.Logger) *Navigator {
	return &Navigator{logger: logger.With("module", "navigation")}
}

func (n *Navigator) Navigate(ctx context.Context, href string) error {
	if _, err := url.Parse(href); err != nil || href == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, href)
	}

	n.mu.Lock()
	n.current = href
	n.mu.Unlock()

	if location, ok := ctx.Value(locationKey{}).(*Location); ok {
		location.set(href)
	}

	n.logger.InfoContext(ctx, "Navigated", "href", href)

	return nil
}

// Current returns the last location navigated to.
func (n *Navigator) Current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.current
}
