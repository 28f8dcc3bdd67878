package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrMenuItemNotFound is returned when selecting an entry a panel does not contain.
var ErrMenuItemNotFound = errors.New("context menu item not found")

// ContextMenuItem is one selectable entry of a disambiguation menu.
type ContextMenuItem struct {
	ActionID string `json:"action_id"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Href     string `json:"href,omitempty"`
	Order    int    `json:"order"`
	Group    string `json:"group,omitempty"`

	OnClick func(ctx context.Context) error `json:"-"`
}

// ContextMenuPanel is the presentation artifact opened when more than one
// action is compatible with a fired trigger.
type ContextMenuPanel struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Items []ContextMenuItem `json:"items"`
}

// Select runs the entry bound to actionID.
func (p *ContextMenuPanel) Select(ctx context.Context, actionID string) error {
	for _, item := range p.Items {
		if item.ActionID != actionID {
			continue
		}

		if item.OnClick == nil {
			return nil
		}

		return item.OnClick(ctx)
	}

	return fmt.Errorf("%w: %s", ErrMenuItemNotFound, actionID)
}
