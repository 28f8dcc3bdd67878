package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dukex/uiactions/pkg/license"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidConfig = errors.New("invalid drilldown config")

// ActionFactory turns a plugin Drilldown into a protocol.ActionFactory. It
// adds license gating and validates configs against the drilldown schema
// before the drilldown's own check.
type ActionFactory struct {
	drilldown protocol.Drilldown
	checker   license.Checker
	minimal   license.Level
	gated     bool
	schema    *gojsonschema.Schema
}

var _ protocol.ActionFactory = (*ActionFactory)(nil)

// NewActionFactory wraps drilldown. A nil checker only passes drilldowns
// that need no license.
func NewActionFactory(drilldown protocol.Drilldown, checker license.Checker) (*ActionFactory, error) {
	factory := &ActionFactory{
		drilldown: drilldown,
		checker:   checker,
	}

	if name := drilldown.MinimalLicense(); name != "" {
		level, err := license.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("drilldown %s: %w", drilldown.ID(), err)
		}

		factory.minimal = level
		factory.gated = true
	}

	if schema := drilldown.Schema(); schema != nil {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
		if err != nil {
			return nil, fmt.Errorf("drilldown %s schema: %w", drilldown.ID(), err)
		}

		factory.schema = compiled
	}

	return factory, nil
}

func (f *ActionFactory) ID() string {
	return f.drilldown.ID()
}

func (f *ActionFactory) Order() int {
	return f.drilldown.Order()
}

func (f *ActionFactory) GetDisplayName(models.FactoryContext) string {
	return f.drilldown.DisplayName()
}

func (f *ActionFactory) GetIconType(models.FactoryContext) string {
	return f.drilldown.IconType()
}

func (f *ActionFactory) Schema() map[string]any {
	return f.drilldown.Schema()
}

func (f *ActionFactory) CreateConfig(models.FactoryContext) map[string]any {
	return f.drilldown.CreateConfig()
}

func (f *ActionFactory) SupportedTriggers() []string {
	return f.drilldown.SupportedTriggers()
}

// ValidateConfig checks config against the drilldown schema and then the
// drilldown's own rules.
func (f *ActionFactory) ValidateConfig(config map[string]any, fctx models.FactoryContext) error {
	if f.schema != nil {
		result, err := f.schema.Validate(gojsonschema.NewGoLoader(config))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		if !result.Valid() {
			messages := make([]string, 0, len(result.Errors()))
			for _, resultErr := range result.Errors() {
				messages = append(messages, resultErr.String())
			}

			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
		}
	}

	if !f.drilldown.IsConfigValid(config, fctx) {
		return ErrInvalidConfig
	}

	return nil
}

func (f *ActionFactory) IsConfigValid(config map[string]any, fctx models.FactoryContext) bool {
	return f.ValidateConfig(config, fctx) == nil
}

// MinimalLicense returns the level the drilldown needs and whether it needs one.
func (f *ActionFactory) MinimalLicense() (license.Level, bool) {
	return f.minimal, f.gated
}

func (f *ActionFactory) IsCompatibleLicense() bool {
	if !f.gated {
		return true
	}

	if f.checker == nil {
		return false
	}

	return f.checker.HasAtLeast(f.minimal)
}

// IsCompatible reports whether the drilldown can be bound to at least one
// trigger the place supports.
func (f *ActionFactory) IsCompatible(_ context.Context, fctx models.FactoryContext) (bool, error) {
	for _, trigger := range f.drilldown.SupportedTriggers() {
		if slices.Contains(fctx.Triggers, trigger) {
			return true, nil
		}
	}

	return false, nil
}

// Create revives serialized into a runtime action registered under id.
//
// nolint:ireturn // actions are polymorphic
func (f *ActionFactory) Create(id string, serialized models.SerializedAction) (protocol.Action, error) {
	if serialized.FactoryID != "" && serialized.FactoryID != f.ID() {
		return nil, fmt.Errorf("%w: factory %s cannot create %s actions", ErrInvalidConfig, f.ID(), serialized.FactoryID)
	}

	config := maps.Clone(serialized.Config)
	name := serialized.Name
	drilldown := f.drilldown

	return uiactions.NewAction(uiactions.Definition{
		ID:    id,
		Type:  f.ID(),
		Order: drilldown.Order(),
		Grouping: []models.Grouping{
			{ID: "drilldowns", Name: "Drilldowns", Order: drilldownsGroupOrder},
		},
		GetDisplayName: func(context.Context, models.ActionContext) string {
			return name
		},
		GetIconType: func(context.Context, models.ActionContext) string {
			return drilldown.IconType()
		},
		IsCompatible: func(ctx context.Context, actionCtx models.ActionContext) (bool, error) {
			return drilldown.IsCompatible(ctx, config, actionCtx)
		},
		GetHref: func(ctx context.Context, actionCtx models.ActionContext) (string, error) {
			return drilldown.GetHref(ctx, config, actionCtx)
		},
		Execute: func(ctx context.Context, actionCtx models.ActionContext) error {
			return drilldown.Execute(ctx, config, actionCtx)
		},
	}), nil
}

const drilldownsGroupOrder = 25
