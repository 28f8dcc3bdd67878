package protocol

import (
	"context"

	"github.com/dukex/uiactions/pkg/models"
)

// ActionFactory is a registered type of dynamic action (a drilldown type).
// Factories hold no mutable state.
type ActionFactory interface {
	ID() string
	Order() int
	GetDisplayName(fctx models.FactoryContext) string
	GetIconType(fctx models.FactoryContext) string
	// Schema describes the config collection form as a JSON schema.
	Schema() map[string]any
	CreateConfig(fctx models.FactoryContext) map[string]any
	IsConfigValid(config map[string]any, fctx models.FactoryContext) bool
	SupportedTriggers() []string
	IsCompatibleLicense() bool
	IsCompatible(ctx context.Context, fctx models.FactoryContext) (bool, error)
	// Create revives a persisted dynamic action into a runtime action with the given id.
	Create(id string, serialized models.SerializedAction) (Action, error)
}

// Drilldown is what a plugin implements to contribute a drilldown type. The
// registry wraps it into an ActionFactory that adds license gating and
// schema validation.
type Drilldown interface {
	ID() string
	Order() int
	DisplayName() string
	IconType() string
	// MinimalLicense is the license level name required, empty for none.
	MinimalLicense() string
	Schema() map[string]any
	CreateConfig() map[string]any
	IsConfigValid(config map[string]any, fctx models.FactoryContext) bool
	SupportedTriggers() []string

	IsCompatible(ctx context.Context, config map[string]any, actionCtx models.ActionContext) (bool, error)
	GetHref(ctx context.Context, config map[string]any, actionCtx models.ActionContext) (string, error)
	Execute(ctx context.Context, config map[string]any, actionCtx models.ActionContext) error
}
