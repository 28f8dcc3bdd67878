// Package web provides the HTTP handlers of the UI actions API.
package web

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
)

// Execution results of POST /triggers/:id/execute.
const (
	ResultExecuted  = "executed"
	ResultNavigated = "navigated"
	ResultMenu      = "menu"
)

// ActionContextRequest carries the context a trigger fires with.
type ActionContextRequest struct {
	Context models.ActionContext `json:"context"`
}

// ExecuteResponse tells the caller what firing a trigger did.
type ExecuteResponse struct {
	Result string `json:"result"`
	Href   string `json:"href,omitempty"`
	MenuID string `json:"menu_id,omitempty"`
}

// SelectMenuItemRequest picks an entry of an open menu.
type SelectMenuItemRequest struct {
	ActionID string `json:"action_id" validate:"required"`
}

// CreateDrilldownRequest represents the request body for creating a drilldown.
type CreateDrilldownRequest struct {
	FactoryID string         `json:"factory_id" validate:"required"`
	Name      string         `json:"name"       validate:"required,min=1"`
	Triggers  []string       `json:"triggers"   validate:"required,min=1,dive,required"`
	Config    map[string]any `json:"config"`
}

// UpdateDrilldownRequest represents the request body for updating a
// drilldown. All fields are optional to support partial updates.
type UpdateDrilldownRequest struct {
	Name     *string        `json:"name,omitempty"     validate:"omitempty,min=1"`
	Triggers []string       `json:"triggers,omitempty" validate:"omitempty,min=1,dive,required"`
	Config   map[string]any `json:"config,omitempty"`
}

// DrilldownsResponse is the drilldown manager list screen.
type DrilldownsResponse struct {
	Drilldowns              []models.DrilldownListItem `json:"drilldowns"`
	CanUnlockMoreDrilldowns bool                       `json:"can_unlock_more_drilldowns"`
	WelcomeMessageHidden    bool                       `json:"welcome_message_hidden"`
}

// DrilldownTypeResponse describes a drilldown type available to a place.
type DrilldownTypeResponse struct {
	ID                string         `json:"id"`
	DisplayName       string         `json:"display_name"`
	Icon              string         `json:"icon,omitempty"`
	Order             int            `json:"order"`
	SupportedTriggers []string       `json:"supported_triggers"`
	Schema            map[string]any `json:"schema,omitempty"`
	DefaultConfig     map[string]any `json:"default_config"`
	LicenseCompatible bool           `json:"license_compatible"`
}

// TransformDrilldownType transforms a factory into a DrilldownTypeResponse.
func TransformDrilldownType(factory protocol.ActionFactory, fctx models.FactoryContext) DrilldownTypeResponse {
	return DrilldownTypeResponse{
		ID:                factory.ID(),
		DisplayName:       factory.GetDisplayName(fctx),
		Icon:              factory.GetIconType(fctx),
		Order:             factory.Order(),
		SupportedTriggers: factory.SupportedTriggers(),
		Schema:            factory.Schema(),
		DefaultConfig:     factory.CreateConfig(fctx),
		LicenseCompatible: factory.IsCompatibleLicense(),
	}
}

// TransformActions summarizes actions as seen with actionCtx.
func TransformActions(ctx context.Context, actions []protocol.Action, actionCtx models.ActionContext) []models.ActionView {
	views := make([]models.ActionView, 0, len(actions))
	for _, action := range actions {
		views = append(views, models.ActionView{
			ID:          action.ID(),
			Type:        action.Type(),
			Order:       action.Order(),
			DisplayName: action.GetDisplayName(ctx, actionCtx),
			IconType:    action.GetIconType(ctx, actionCtx),
		})
	}

	return views
}
