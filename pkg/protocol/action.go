// Package protocol defines the capability interfaces plugins implement and the
// collaborator services the action engine calls back into.
package protocol

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
)

// Action is a unit of behavior attachable to triggers.
type Action interface {
	ID() string
	Type() string
	// Order is used for presentation only, higher first.
	Order() int
	GetIconType(ctx context.Context, actionCtx models.ActionContext) string
	GetDisplayName(ctx context.Context, actionCtx models.ActionContext) string
	IsCompatible(ctx context.Context, actionCtx models.ActionContext) (bool, error)
	// GetHref returns a location to navigate to instead of calling Execute.
	// An empty string means the action has no href for this context.
	GetHref(ctx context.Context, actionCtx models.ActionContext) (string, error)
	Execute(ctx context.Context, actionCtx models.ActionContext) error
}

// Grouped is implemented by actions that belong to a context menu section.
type Grouped interface {
	Grouping() []models.Grouping
}
