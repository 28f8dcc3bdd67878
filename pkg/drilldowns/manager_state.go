// Package drilldowns holds the state behind the drilldown manager: which
// screen is shown, the drilldown being created or edited, and the list of
// existing drilldowns.
package drilldowns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/dukex/uiactions/pkg/dynamicactions"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/observable"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/uiactions"
)

var (
	ErrNoDrilldownSelected = errors.New("no drilldown type selected")
	ErrNotEditing          = errors.New("no drilldown is being edited")
	ErrInvalidDrilldown    = errors.New("drilldown is not valid")
	ErrInsufficientLicense = errors.New("insufficient license")
)

type Screen string

const (
	ScreenList   Screen = "list"
	ScreenCreate Screen = "create"
	ScreenEdit   Screen = "edit"
	ScreenManage Screen = "manage"
)

// DynamicActionManager stores drilldown events and exposes them as
// observable state. dynamicactions.Manager implements it.
type DynamicActionManager interface {
	State() *observable.Value[dynamicactions.State]
	CreateEvent(ctx context.Context, action models.SerializedAction, triggers []string) (models.SerializedEvent, error)
	UpdateEvent(ctx context.Context, eventID string, action models.SerializedAction, triggers []string) error
	DeleteEvents(ctx context.Context, eventIDs []string) error
}

// FactoryLister lists and resolves action factories.
type FactoryLister interface {
	List() []protocol.ActionFactory
	Get(id string) (protocol.ActionFactory, error)
}

// TriggerLookup resolves trigger metadata for list rows.
type TriggerLookup interface {
	GetTrigger(id string) (*uiactions.Trigger, error)
}

type Deps struct {
	Logger    *slog.Logger
	Manager   DynamicActionManager
	Factories FactoryLister
	Triggers  TriggerLookup
	Toasts    protocol.Toasts
	Storage   protocol.KeyValueStorage

	// PlaceTriggers are the triggers supported where the manager was opened.
	PlaceTriggers []string
	PlaceContext  map[string]any
	// Screen is the initial screen, ScreenList when empty.
	Screen  Screen
	OnClose func()
}

// ManagerState is the state of one drilldown manager session.
type ManagerState struct {
	deps   Deps
	logger *slog.Logger

	screen         *observable.Value[Screen]
	hideWelcome    *observable.Value[bool]
	actionFactory  *observable.Value[protocol.ActionFactory]
	events         *observable.Value[[]models.DrilldownListItem]
	canUnlockMore  bool
	unsubscribe    func()
	mu             sync.Mutex
	stateByFactory map[string]*DrilldownState
	editingID      string
	editing        *DrilldownState
}

// NewManagerState opens a session. The welcome message flag is read from
// the key/value storage; a storage failure shows the message.
func NewManagerState(ctx context.Context, deps Deps) *ManagerState {
	screen := deps.Screen
	if screen == "" {
		screen = ScreenList
	}

	s := &ManagerState{
		deps:           deps,
		logger:         deps.Logger.With("module", "drilldowns"),
		screen:         observable.New(screen),
		actionFactory:  observable.New[protocol.ActionFactory](nil),
		stateByFactory: make(map[string]*DrilldownState),
	}

	s.hideWelcome = observable.New(s.readWelcomeFlag(ctx))

	for _, factory := range deps.Factories.List() {
		if !factory.IsCompatibleLicense() {
			s.canUnlockMore = true

			break
		}
	}

	managerState := deps.Manager.State()
	s.events = observable.New(s.mapEvents(managerState.Get().Events))
	s.unsubscribe = managerState.Subscribe(func(state dynamicactions.State) {
		s.events.Set(s.mapEvents(state.Events))
	})

	return s
}

func (s *ManagerState) Screen() *observable.Value[Screen] {
	return s.screen
}

// WelcomeMessageHidden reports whether the user dismissed the welcome message.
func (s *ManagerState) WelcomeMessageHidden() *observable.Value[bool] {
	return s.hideWelcome
}

func (s *ManagerState) ActionFactory() *observable.Value[protocol.ActionFactory] {
	return s.actionFactory
}

// Events is the list of existing drilldowns, kept in step with the dynamic
// action manager.
func (s *ManagerState) Events() *observable.Value[[]models.DrilldownListItem] {
	return s.events
}

// CanUnlockMoreDrilldowns reports whether some drilldown type is held back
// by the current license.
func (s *ManagerState) CanUnlockMoreDrilldowns() bool {
	return s.canUnlockMore
}

func (s *ManagerState) SetScreen(screen Screen) {
	s.screen.Set(screen)
}

// HideWelcomeMessage hides the welcome message and remembers the choice.
func (s *ManagerState) HideWelcomeMessage(ctx context.Context) error {
	s.hideWelcome.Set(true)

	if err := s.deps.Storage.Set(ctx, welcomeMessageStorageKey, "true"); err != nil {
		return fmt.Errorf("failed to store welcome message flag: %w", err)
	}

	return nil
}

// SetActionFactory selects the drilldown type to create. A nil factory
// clears the selection. The first selection of a factory seeds its form with
// the name typed for the previously selected factory and the factory's
// default config; later selections reuse the form as left.
func (s *ManagerState) SetActionFactory(factory protocol.ActionFactory) {
	if factory == nil {
		s.actionFactory.Set(nil)

		return
	}

	s.mu.Lock()
	if _, ok := s.stateByFactory[factory.ID()]; !ok {
		name := ""
		if previous := s.actionFactory.Get(); previous != nil {
			if previousState, ok := s.stateByFactory[previous.ID()]; ok {
				name = previousState.Name().Get()
			}
		}

		s.stateByFactory[factory.ID()] = NewDrilldownState(DrilldownStateOptions{
			Factory:       factory,
			PlaceTriggers: s.deps.PlaceTriggers,
			PlaceContext:  s.deps.PlaceContext,
			Name:          name,
			Triggers:      []string{},
			Config:        factory.CreateConfig(s.ActionFactoryContext()),
		})
	}
	s.mu.Unlock()

	s.actionFactory.Set(factory)
}

// ActionFactoryContext is the place context with no triggers selected.
func (s *ManagerState) ActionFactoryContext() models.FactoryContext {
	return models.FactoryContext{
		Place:    s.deps.PlaceContext,
		Triggers: []string{},
	}
}

// DrilldownState returns the form of the selected drilldown type, nil when
// none is selected.
func (s *ManagerState) DrilldownState() *DrilldownState {
	factory := s.actionFactory.Get()
	if factory == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateByFactory[factory.ID()]
}

// CompatibleFactories lists the drilldown types that can run on at least
// one of the place triggers. Types locked by the license are included so
// they can be offered as an upgrade.
func (s *ManagerState) CompatibleFactories(ctx context.Context) ([]protocol.ActionFactory, error) {
	fctx := models.FactoryContext{
		Place:    s.deps.PlaceContext,
		Triggers: slices.Clone(s.deps.PlaceTriggers),
	}

	compatible := []protocol.ActionFactory{}
	for _, factory := range s.deps.Factories.List() {
		ok, err := factory.IsCompatible(ctx, fctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check drilldown type %s: %w", factory.ID(), err)
		}

		if ok {
			compatible = append(compatible, factory)
		}
	}

	return compatible, nil
}

// OnCreateDrilldown saves the drilldown of the selected type. On failure
// the form is kept so the user can retry.
func (s *ManagerState) OnCreateDrilldown(ctx context.Context) (models.SerializedEvent, error) {
	drilldown := s.DrilldownState()
	if drilldown == nil {
		return models.SerializedEvent{}, ErrNoDrilldownSelected
	}

	if !drilldown.Factory().IsCompatibleLicense() {
		s.deps.Toasts.AddError(ctx, ErrInsufficientLicense, toastCRUDError)

		return models.SerializedEvent{}, ErrInsufficientLicense
	}

	if !drilldown.IsValid() {
		s.deps.Toasts.AddError(ctx, ErrInvalidDrilldown, toastCRUDError)

		return models.SerializedEvent{}, ErrInvalidDrilldown
	}

	name := drilldown.Name().Get()

	event, err := s.deps.Manager.CreateEvent(ctx, drilldown.Serialize(), drilldown.Triggers().Get())
	if err != nil {
		s.logger.Error("Failed to create drilldown", "factory_id", drilldown.Factory().ID(), "error", err)
		s.deps.Toasts.AddError(ctx, err, toastCRUDError)

		return models.SerializedEvent{}, err
	}

	s.deps.Toasts.AddSuccess(ctx, toastCreatedTitle(name), toastCreatedText)

	s.mu.Lock()
	clear(s.stateByFactory)
	s.mu.Unlock()

	s.actionFactory.Set(nil)
	s.screen.Set(ScreenManage)

	return event, nil
}

// StartEditing loads an existing drilldown into an edit form and switches
// to the edit screen.
func (s *ManagerState) StartEditing(eventID string) (*DrilldownState, error) {
	events := s.deps.Manager.State().Get().Events

	index := slices.IndexFunc(events, func(event models.SerializedEvent) bool {
		return event.EventID == eventID
	})
	if index < 0 {
		return nil, persistence.NewEventError("StartEditing", eventID, persistence.ErrEventNotFound)
	}

	event := events[index]

	factory, err := s.deps.Factories.Get(event.Action.FactoryID)
	if err != nil {
		return nil, err
	}

	drilldown := NewDrilldownState(DrilldownStateOptions{
		Factory:       factory,
		PlaceTriggers: s.deps.PlaceTriggers,
		PlaceContext:  s.deps.PlaceContext,
		Name:          event.Action.Name,
		Triggers:      event.Triggers,
		Config:        event.Action.Config,
	})

	s.mu.Lock()
	s.editingID = eventID
	s.editing = drilldown
	s.mu.Unlock()

	s.screen.Set(ScreenEdit)

	return drilldown, nil
}

// Editing returns the drilldown being edited and its event id.
func (s *ManagerState) Editing() (string, *DrilldownState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.editingID, s.editing
}

// OnUpdateDrilldown saves the drilldown being edited.
func (s *ManagerState) OnUpdateDrilldown(ctx context.Context) error {
	eventID, drilldown := s.Editing()
	if drilldown == nil {
		return ErrNotEditing
	}

	if !drilldown.IsValid() {
		s.deps.Toasts.AddError(ctx, ErrInvalidDrilldown, toastCRUDError)

		return ErrInvalidDrilldown
	}

	err := s.deps.Manager.UpdateEvent(ctx, eventID, drilldown.Serialize(), drilldown.Triggers().Get())
	if err != nil {
		s.logger.Error("Failed to update drilldown", "event_id", eventID, "error", err)
		s.deps.Toasts.AddError(ctx, err, toastCRUDError)

		return err
	}

	s.deps.Toasts.AddSuccess(ctx, toastUpdatedTitle, toastUpdatedText)

	s.mu.Lock()
	s.editingID = ""
	s.editing = nil
	s.mu.Unlock()

	s.screen.Set(ScreenManage)

	return nil
}

// OnDeleteDrilldowns deletes the given drilldowns.
func (s *ManagerState) OnDeleteDrilldowns(ctx context.Context, eventIDs []string) error {
	if err := s.deps.Manager.DeleteEvents(ctx, eventIDs); err != nil {
		s.logger.Error("Failed to delete drilldowns", "count", len(eventIDs), "error", err)
		s.deps.Toasts.AddError(ctx, err, toastDeleteError)

		return err
	}

	s.deps.Toasts.AddSuccess(ctx, toastDeletedTitle(len(eventIDs)), "")

	return nil
}

// Close closes the manager.
func (s *ManagerState) Close() {
	if s.deps.OnClose != nil {
		s.deps.OnClose()
	}
}

// Dispose stops following the dynamic action manager.
func (s *ManagerState) Dispose() {
	s.unsubscribe()
}

func (s *ManagerState) readWelcomeFlag(ctx context.Context) bool {
	value, ok, err := s.deps.Storage.Get(ctx, welcomeMessageStorageKey)
	if err != nil {
		s.logger.Warn("Failed to read welcome message flag", "error", err)

		return false
	}

	if !ok {
		return false
	}

	hidden, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}

	return hidden
}

func (s *ManagerState) mapEvents(events []models.SerializedEvent) []models.DrilldownListItem {
	items := make([]models.DrilldownListItem, 0, len(events))
	for _, event := range events {
		items = append(items, s.mapEvent(event))
	}

	return items
}

func (s *ManagerState) mapEvent(event models.SerializedEvent) models.DrilldownListItem {
	fctx := models.FactoryContext{
		Place:    s.deps.PlaceContext,
		Triggers: event.Triggers,
	}

	item := models.DrilldownListItem{
		ID:            event.EventID,
		DrilldownName: event.Action.Name,
		ActionName:    event.Action.FactoryID,
		Triggers:      make([]models.TriggerView, 0, len(event.Triggers)),
	}

	factory, err := s.deps.Factories.Get(event.Action.FactoryID)
	switch {
	case err != nil:
		item.Error = msgInvalidDrilldownType(event.Action.FactoryID)
	default:
		item.ActionName = factory.GetDisplayName(fctx)
		item.Icon = factory.GetIconType(fctx)

		if !factory.IsCompatibleLicense() {
			item.Error = msgInsufficientLicense
		}
	}

	for _, triggerID := range event.Triggers {
		trigger, err := s.deps.Triggers.GetTrigger(triggerID)
		if err != nil {
			item.Triggers = append(item.Triggers, models.TriggerView{ID: triggerID, ActionIDs: []string{}})

			continue
		}

		item.Triggers = append(item.Triggers, trigger.View())
	}

	return item
}
