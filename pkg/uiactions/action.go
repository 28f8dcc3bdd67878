package uiactions

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
)

// Definition describes an action by its optional capabilities. Unset
// capabilities fall back to the defaults of NewAction.
type Definition struct {
	ID    string
	Type  string
	Order int

	Grouping []models.Grouping

	GetIconType    func(ctx context.Context, actionCtx models.ActionContext) string
	GetDisplayName func(ctx context.Context, actionCtx models.ActionContext) string
	IsCompatible   func(ctx context.Context, actionCtx models.ActionContext) (bool, error)
	GetHref        func(ctx context.Context, actionCtx models.ActionContext) (string, error)
	Execute        func(ctx context.Context, actionCtx models.ActionContext) error
}

// Action adapts a Definition to protocol.Action.
type Action struct {
	definition Definition
}

var (
	_ protocol.Action  = (*Action)(nil)
	_ protocol.Grouped = (*Action)(nil)
)

// NewAction wraps def with default capabilities.
func NewAction(def Definition) *Action {
	return &Action{definition: def}
}

func (a *Action) ID() string {
	return a.definition.ID
}

func (a *Action) Type() string {
	return a.definition.Type
}

func (a *Action) Order() int {
	return a.definition.Order
}

func (a *Action) Grouping() []models.Grouping {
	return a.definition.Grouping
}

func (a *Action) GetIconType(ctx context.Context, actionCtx models.ActionContext) string {
	if a.definition.GetIconType == nil {
		return ""
	}

	return a.definition.GetIconType(ctx, actionCtx)
}

func (a *Action) GetDisplayName(ctx context.Context, actionCtx models.ActionContext) string {
	if a.definition.GetDisplayName == nil {
		return "Action: " + a.definition.ID
	}

	return a.definition.GetDisplayName(ctx, actionCtx)
}

func (a *Action) IsCompatible(ctx context.Context, actionCtx models.ActionContext) (bool, error) {
	if a.definition.IsCompatible == nil {
		return true, nil
	}

	return a.definition.IsCompatible(ctx, actionCtx)
}

func (a *Action) GetHref(ctx context.Context, actionCtx models.ActionContext) (string, error) {
	if a.definition.GetHref == nil {
		return "", nil
	}

	return a.definition.GetHref(ctx, actionCtx)
}

func (a *Action) Execute(ctx context.Context, actionCtx models.ActionContext) error {
	if a.definition.Execute == nil {
		return nil
	}

	return a.definition.Execute(ctx, actionCtx)
}
