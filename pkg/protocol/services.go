package protocol

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
)

// Navigator changes the current location. It is used when an action
// resolves to an href instead of executing.
type Navigator interface {
	Navigate(ctx context.Context, href string) error
}

// OverlaySession is an open overlay.
type OverlaySession interface {
	Close()
}

// Overlay opens a context menu for the user to pick one of several actions.
type Overlay interface {
	Open(ctx context.Context, panel *models.ContextMenuPanel) (OverlaySession, error)
}

// Toasts shows user facing notifications.
type Toasts interface {
	AddSuccess(ctx context.Context, title, text string)
	AddError(ctx context.Context, err error, title string)
}

// KeyValueStorage persists small user preferences.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
