package drilldowns

import (
	"maps"
	"slices"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/observable"
	"github.com/dukex/uiactions/pkg/protocol"
)

// DrilldownState is the form state of one drilldown being created or edited.
type DrilldownState struct {
	factory       protocol.ActionFactory
	placeContext  map[string]any
	placeTriggers []string
	uiTriggers    []string

	name     *observable.Value[string]
	triggers *observable.Value[[]string]
	config   *observable.Value[map[string]any]
}

// DrilldownStateOptions seeds a DrilldownState.
type DrilldownStateOptions struct {
	Factory       protocol.ActionFactory
	PlaceTriggers []string
	PlaceContext  map[string]any
	Name          string
	Triggers      []string
	Config        map[string]any
}

func NewDrilldownState(opts DrilldownStateOptions) *DrilldownState {
	config := opts.Config
	if config == nil {
		config = map[string]any{}
	}

	triggers := slices.Clone(opts.Triggers)
	if triggers == nil {
		triggers = []string{}
	}

	uiTriggers := []string{}
	for _, trigger := range opts.Factory.SupportedTriggers() {
		if slices.Contains(opts.PlaceTriggers, trigger) {
			uiTriggers = append(uiTriggers, trigger)
		}
	}

	return &DrilldownState{
		factory:       opts.Factory,
		placeContext:  opts.PlaceContext,
		placeTriggers: slices.Clone(opts.PlaceTriggers),
		uiTriggers:    uiTriggers,
		name:          observable.New(opts.Name),
		triggers:      observable.New(triggers),
		config:        observable.New(config),
	}
}

func (s *DrilldownState) Factory() protocol.ActionFactory {
	return s.factory
}

// UITriggers lists the triggers the user may pick for this drilldown: the
// factory's supported triggers that the place also supports.
func (s *DrilldownState) UITriggers() []string {
	return slices.Clone(s.uiTriggers)
}

func (s *DrilldownState) PlaceTriggers() []string {
	return slices.Clone(s.placeTriggers)
}

func (s *DrilldownState) Name() *observable.Value[string] {
	return s.name
}

func (s *DrilldownState) Triggers() *observable.Value[[]string] {
	return s.triggers
}

func (s *DrilldownState) Config() *observable.Value[map[string]any] {
	return s.config
}

func (s *DrilldownState) SetName(name string) {
	s.name.Set(name)
}

func (s *DrilldownState) SetTriggers(triggers []string) {
	s.triggers.Set(slices.Clone(triggers))
}

func (s *DrilldownState) SetConfig(config map[string]any) {
	s.config.Set(maps.Clone(config))
}

// FactoryContext is the place context with the currently selected triggers.
func (s *DrilldownState) FactoryContext() models.FactoryContext {
	return models.FactoryContext{
		Place:    s.placeContext,
		Triggers: s.triggers.Get(),
	}
}

// Serialize returns the persistable form of the drilldown.
func (s *DrilldownState) Serialize() models.SerializedAction {
	return models.SerializedAction{
		FactoryID: s.factory.ID(),
		Name:      s.name.Get(),
		Config:    maps.Clone(s.config.Get()),
	}
}

// IsValid reports whether the drilldown can be saved: it has a name, at least
// one trigger and a config the factory accepts.
func (s *DrilldownState) IsValid() bool {
	if s.name.Get() == "" {
		return false
	}

	if len(s.triggers.Get()) == 0 {
		return false
	}

	return s.factory.IsConfigValid(s.config.Get(), s.FactoryContext())
}
