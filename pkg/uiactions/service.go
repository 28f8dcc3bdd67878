// Package uiactions holds the trigger and action registries, the bindings
// between them, and the engine that runs the actions of a fired trigger.
package uiactions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/uiactions/pkg/metrics"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/otelhelper"
	"github.com/dukex/uiactions/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Option configures a Service.
type Option func(*Service)

// WithNavigator sets the navigator used by href actions.
func WithNavigator(navigator protocol.Navigator) Option {
	return func(s *Service) {
		s.navigator = navigator
	}
}

// WithOverlay sets the overlay used to open the disambiguation menu.
func WithOverlay(overlay protocol.Overlay) Option {
	return func(s *Service) {
		s.overlay = overlay
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// Service is a trigger and action registry plus the engine that executes
// the actions of a fired trigger. Instances are independent: pass one to
// every plugin that needs it, and Fork it to scope app local actions.
type Service struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.Collector
	navigator protocol.Navigator
	overlay   protocol.Overlay

	mu       sync.RWMutex
	triggers map[string]*Trigger
	actions  map[string]protocol.Action
}

// NewService creates an empty Service.
func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		logger:   logger.With("module", "uiactions"),
		tracer:   otelhelper.DefaultTracer(),
		triggers: make(map[string]*Trigger),
		actions:  make(map[string]protocol.Action),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterTrigger adds trigger to the registry.
func (s *Service) RegisterTrigger(trigger *Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.triggers[trigger.ID]; exists {
		return duplicateTriggerError(trigger.ID)
	}

	s.triggers[trigger.ID] = trigger
	s.logger.Debug("Registered trigger", "trigger_id", trigger.ID)

	return nil
}

// GetTrigger returns the trigger registered under id.
func (s *Service) GetTrigger(id string) (*Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trigger, ok := s.triggers[id]
	if !ok {
		return nil, triggerNotFoundError(id)
	}

	return trigger, nil
}

// HasTrigger reports whether a trigger is registered under id.
func (s *Service) HasTrigger(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.triggers[id]

	return ok
}

// Triggers returns all registered triggers sorted by id.
func (s *Service) Triggers() []*Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()

	triggers := make([]*Trigger, 0, len(s.triggers))
	for _, trigger := range s.triggers {
		triggers = append(triggers, trigger)
	}

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].ID < triggers[j].ID
	})

	return triggers
}

// RegisterAction adds action to the registry.
func (s *Service) RegisterAction(action protocol.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.actions[action.ID()]; exists {
		return duplicateActionError(action.ID())
	}

	s.actions[action.ID()] = action
	s.logger.Debug("Registered action", "action_id", action.ID(), "action_type", action.Type())

	return nil
}

// UnregisterAction removes the action registered under id. Trigger bindings
// that still reference it are left alone and filtered out at lookup.
func (s *Service) UnregisterAction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.actions[id]; !exists {
		return actionNotFoundError(id)
	}

	delete(s.actions, id)

	return nil
}

// GetAction returns the action registered under id.
//
// nolint:ireturn // actions are polymorphic
func (s *Service) GetAction(id string) (protocol.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	action, ok := s.actions[id]
	if !ok {
		return nil, actionNotFoundError(id)
	}

	return action, nil
}

// HasAction reports whether an action is registered under id.
func (s *Service) HasAction(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.actions[id]

	return ok
}

// Actions returns all registered actions sorted by id.
func (s *Service) Actions() []protocol.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := make([]protocol.Action, 0, len(s.actions))
	for _, action := range s.actions {
		actions = append(actions, action)
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].ID() < actions[j].ID()
	})

	return actions
}

// AttachAction binds actionID to triggerID. Attaching an already attached
// id is a no-op. The action does not have to be registered yet.
func (s *Service) AttachAction(triggerID, actionID string) error {
	s.mu.RLock()
	trigger, ok := s.triggers[triggerID]
	s.mu.RUnlock()

	if !ok {
		return bindingTriggerNotFoundError("AttachAction", "attaching", triggerID, actionID)
	}

	if trigger.attach(actionID) {
		s.logger.Debug("Attached action", "trigger_id", triggerID, "action_id", actionID)
	}

	return nil
}

// DetachAction removes actionID from triggerID. Detaching an id that is not
// attached is a no-op.
func (s *Service) DetachAction(triggerID, actionID string) error {
	s.mu.RLock()
	trigger, ok := s.triggers[triggerID]
	s.mu.RUnlock()

	if !ok {
		return bindingTriggerNotFoundError("DetachAction", "detaching", triggerID, actionID)
	}

	if trigger.detach(actionID) {
		s.logger.Debug("Detached action", "trigger_id", triggerID, "action_id", actionID)
	}

	return nil
}

// AddTriggerAction registers action unless already registered and attaches it to triggerID.
func (s *Service) AddTriggerAction(triggerID string, action protocol.Action) error {
	if !s.HasAction(action.ID()) {
		err := s.RegisterAction(action)
		if err != nil {
			return err
		}
	}

	return s.AttachAction(triggerID, action.ID())
}

// GetTriggerActions returns the registered actions attached to triggerID in
// attachment order. Attached ids with no registered action are skipped.
func (s *Service) GetTriggerActions(triggerID string) ([]protocol.Action, error) {
	trigger, err := s.GetTrigger(triggerID)
	if err != nil {
		return nil, err
	}

	ids := trigger.ActionIDs()

	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := make([]protocol.Action, 0, len(ids))
	for _, id := range ids {
		if action, ok := s.actions[id]; ok {
			actions = append(actions, action)
		}
	}

	return actions, nil
}

// GetTriggerCompatibleActions runs IsCompatible for every attached action
// concurrently and returns the compatible ones in attachment order. The
// first failing check aborts the whole resolution.
func (s *Service) GetTriggerCompatibleActions(
	ctx context.Context,
	triggerID string,
	actionCtx models.ActionContext,
) (compatible []protocol.Action, err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "uiactions.compatible_actions",
		attribute.String(otelhelper.TriggerIDKey, triggerID),
	)
	defer func() { otelhelper.End(span, err) }()

	actions, err := s.GetTriggerActions(triggerID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	results := make([]bool, len(actions))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, action := range actions {
		group.Go(func() error {
			ok, err := action.IsCompatible(groupCtx, actionCtx)
			if err != nil {
				return err
			}

			results[i] = ok

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, err
	}

	compatible = make([]protocol.Action, 0, len(actions))
	for i, action := range actions {
		if results[i] {
			compatible = append(compatible, action)
		}
	}

	s.metrics.ObserveCompatibility(triggerID, time.Since(started), len(compatible))
	span.SetAttributes(attribute.Int(otelhelper.ActionCountKey, len(compatible)))

	return compatible, nil
}

// ExecuteTriggerActions runs the actions of a fired trigger. A single
// compatible action runs directly; several open a context menu through
// the overlay so the user can pick one.
func (s *Service) ExecuteTriggerActions(ctx context.Context, triggerID string, actionCtx models.ActionContext) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "uiactions.execute_trigger_actions",
		attribute.String(otelhelper.TriggerIDKey, triggerID),
	)
	defer func() { otelhelper.End(span, err) }()

	logger := s.logger.With("trigger_id", triggerID)

	// Unknown ids are not recorded so callers cannot grow the metric label set.
	if _, err := s.GetTrigger(triggerID); err != nil {
		return err
	}

	actions, err := s.GetTriggerCompatibleActions(ctx, triggerID, actionCtx)
	if err != nil {
		s.metrics.ObserveExecution(triggerID, metrics.OutcomeError)

		return err
	}

	switch len(actions) {
	case 0:
		s.metrics.ObserveExecution(triggerID, metrics.OutcomeNoCompatible)

		return noCompatibleActionsError(triggerID)
	case 1:
		span.SetAttributes(attribute.String(otelhelper.ExecutionModeKey, "single"))

		outcome, err := s.executeSingleAction(ctx, actions[0], actionCtx)
		if err != nil {
			logger.ErrorContext(ctx, "Action execution failed", "action_id", actions[0].ID(), "error", err)
			s.metrics.ObserveExecution(triggerID, metrics.OutcomeError)

			return err
		}

		s.metrics.ObserveExecution(triggerID, outcome)

		return nil
	default:
		span.SetAttributes(attribute.String(otelhelper.ExecutionModeKey, "menu"))

		err := s.executeMultipleActions(ctx, actions, actionCtx)
		if err != nil {
			s.metrics.ObserveExecution(triggerID, metrics.OutcomeError)

			return err
		}

		s.metrics.ObserveExecution(triggerID, metrics.OutcomeMenu)

		return nil
	}
}

func (s *Service) executeSingleAction(ctx context.Context, action protocol.Action, actionCtx models.ActionContext) (string, error) {
	href, err := action.GetHref(ctx, actionCtx)
	if err != nil {
		return "", err
	}

	if href != "" {
		if s.navigator == nil {
			return "", ErrNavigationUnavailable
		}

		s.logger.DebugContext(ctx, "Navigating", "action_id", action.ID(), "href", href)

		return metrics.OutcomeNavigated, s.navigator.Navigate(ctx, href)
	}

	s.logger.DebugContext(ctx, "Executing action", "action_id", action.ID())

	return metrics.OutcomeExecuted, action.Execute(ctx, actionCtx)
}

func (s *Service) executeMultipleActions(ctx context.Context, actions []protocol.Action, actionCtx models.ActionContext) error {
	if s.overlay == nil {
		return ErrOverlayUnavailable
	}

	var (
		mu      sync.Mutex
		session protocol.OverlaySession
		closed  bool
	)

	closeMenu := func() {
		mu.Lock()
		defer mu.Unlock()

		closed = true
		if session != nil {
			session.Close()
		}
	}

	panel := BuildContextMenu(ctx, actions, actionCtx, func(ctx context.Context, action protocol.Action) error {
		_, err := s.executeSingleAction(ctx, action, actionCtx)

		return err
	}, closeMenu)

	opened, err := s.overlay.Open(ctx, panel)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	session = opened
	if closed {
		session.Close()
	}

	return nil
}

// Clear removes every registered trigger and action.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.triggers = make(map[string]*Trigger)
	s.actions = make(map[string]protocol.Action)
}

// Fork returns a Service that starts with the triggers and actions of s.
// Registrations made afterwards on either side stay local to it, but
// triggers are shared by reference, so attach and detach on a trigger
// that existed at fork time are visible to both.
func (s *Service) Fork() *Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fork := &Service{
		logger:    s.logger,
		tracer:    s.tracer,
		metrics:   s.metrics,
		navigator: s.navigator,
		overlay:   s.overlay,
		triggers:  make(map[string]*Trigger, len(s.triggers)),
		actions:   make(map[string]protocol.Action, len(s.actions)),
	}

	for id, trigger := range s.triggers {
		fork.triggers[id] = trigger
	}

	for id, action := range s.actions {
		fork.actions[id] = action
	}

	return fork
}
