package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dukex/uiactions/pkg/drilldowns"
	"github.com/dukex/uiactions/pkg/dynamicactions"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/navigation"
	"github.com/dukex/uiactions/pkg/notifications"
	"github.com/dukex/uiactions/pkg/overlays"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/registry"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Deps struct {
	Logger    *slog.Logger
	Service   *uiactions.Service
	Overlays  *overlays.Store
	Manager   *dynamicactions.Manager
	Factories *registry.Registry
	Toasts    *notifications.Toasts
	Storage   protocol.KeyValueStorage
	Validator *validator.Validate
	// Checks are reported by GET /health under their names.
	Checks map[string]HealthChecker
	// Gatherer is served on GET /metrics when set.
	Gatherer prometheus.Gatherer
}

type APIHandlers struct {
	deps   Deps
	logger *slog.Logger
}

func NewAPIHandlers(deps Deps) *APIHandlers {
	if deps.Validator == nil {
		deps.Validator = validator.New(validator.WithRequiredStructEnabled())
	}

	return &APIHandlers{
		deps:   deps,
		logger: deps.Logger.With("module", "web"),
	}
}

func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	triggers := h.deps.Service.Triggers()

	views := make([]models.TriggerView, 0, len(triggers))
	for _, trigger := range triggers {
		views = append(views, trigger.View())
	}

	return c.JSON(views)
}

func (h *APIHandlers) GetTrigger(c fiber.Ctx) error {
	trigger, err := h.deps.Service.GetTrigger(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(trigger.View())
}

func (h *APIHandlers) GetTriggerActions(c fiber.Ctx) error {
	actions, err := h.deps.Service.GetTriggerActions(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(TransformActions(c.Context(), actions, models.ActionContext{}))
}

func (h *APIHandlers) AttachAction(c fiber.Ctx) error {
	err := h.deps.Service.AttachAction(c.Params("id"), c.Params("actionId"))
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DetachAction(c fiber.Ctx) error {
	err := h.deps.Service.DetachAction(c.Params("id"), c.Params("actionId"))
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	return c.JSON(TransformActions(c.Context(), h.deps.Service.Actions(), models.ActionContext{}))
}

func (h *APIHandlers) GetCompatibleActions(c fiber.Ctx) error {
	req, err := h.parseActionContext(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	actions, err := h.deps.Service.GetTriggerCompatibleActions(c.Context(), c.Params("id"), req.Context)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(TransformActions(c.Context(), actions, req.Context))
}

// ExecuteTrigger fires a trigger and reports whether an action ran, the
// caller should navigate, or a menu was opened to pick an action from.
func (h *APIHandlers) ExecuteTrigger(c fiber.Ctx) error {
	req, err := h.parseActionContext(c)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	ctx, location := navigation.WithLocation(c.Context())
	ctx, opened := overlays.WithOpened(ctx)

	err = h.deps.Service.ExecuteTriggerActions(ctx, c.Params("id"), req.Context)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(executeResponse(location, opened))
}

func (h *APIHandlers) GetMenus(c fiber.Ctx) error {
	return c.JSON(h.deps.Overlays.List())
}

func (h *APIHandlers) GetMenu(c fiber.Ctx) error {
	menu, err := h.deps.Overlays.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(menu)
}

func (h *APIHandlers) SelectMenuItem(c fiber.Ctx) error {
	var req SelectMenuItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.deps.Validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, location := navigation.WithLocation(c.Context())

	err := h.deps.Overlays.Select(ctx, c.Params("id"), req.ActionID)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(executeResponse(location, nil))
}

func (h *APIHandlers) CancelMenu(c fiber.Ctx) error {
	err := h.deps.Overlays.Cancel(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetDrilldownTypes lists the drilldown types usable on the place triggers
// given by the comma separated triggers query parameter.
func (h *APIHandlers) GetDrilldownTypes(c fiber.Ctx) error {
	session := h.openSession(c)
	defer session.Dispose()

	factories, err := session.CompatibleFactories(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	fctx := session.ActionFactoryContext()

	types := make([]DrilldownTypeResponse, 0, len(factories))
	for _, factory := range factories {
		types = append(types, TransformDrilldownType(factory, fctx))
	}

	return c.JSON(types)
}

func (h *APIHandlers) GetDrilldowns(c fiber.Ctx) error {
	session := h.openSession(c)
	defer session.Dispose()

	return c.JSON(DrilldownsResponse{
		Drilldowns:              session.Events().Get(),
		CanUnlockMoreDrilldowns: session.CanUnlockMoreDrilldowns(),
		WelcomeMessageHidden:    session.WelcomeMessageHidden().Get(),
	})
}

func (h *APIHandlers) CreateDrilldown(c fiber.Ctx) error {
	var req CreateDrilldownRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.deps.Validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	factory, err := h.deps.Factories.Get(req.FactoryID)
	if err != nil {
		return handleError(c, err)
	}

	session := h.openSession(c)
	defer session.Dispose()

	session.SetScreen(drilldowns.ScreenCreate)
	session.SetActionFactory(factory)

	drilldown := session.DrilldownState()
	drilldown.SetName(req.Name)
	drilldown.SetTriggers(req.Triggers)

	if req.Config != nil {
		drilldown.SetConfig(req.Config)
	}

	if err := validateDrilldown(drilldown); err != nil {
		return handleError(c, err)
	}

	event, err := session.OnCreateDrilldown(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *APIHandlers) UpdateDrilldown(c fiber.Ctx) error {
	var req UpdateDrilldownRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.deps.Validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session := h.openSession(c)
	defer session.Dispose()

	drilldown, err := session.StartEditing(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	if req.Name != nil {
		drilldown.SetName(*req.Name)
	}

	if req.Triggers != nil {
		drilldown.SetTriggers(req.Triggers)
	}

	if req.Config != nil {
		drilldown.SetConfig(req.Config)
	}

	if err := validateDrilldown(drilldown); err != nil {
		return handleError(c, err)
	}

	err = session.OnUpdateDrilldown(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(models.SerializedEvent{
		EventID:  c.Params("id"),
		Action:   drilldown.Serialize(),
		Triggers: drilldown.Triggers().Get(),
	})
}

func (h *APIHandlers) DeleteDrilldown(c fiber.Ctx) error {
	session := h.openSession(c)
	defer session.Dispose()

	err := session.OnDeleteDrilldowns(c.Context(), []string{c.Params("id")})
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HideWelcomeMessage(c fiber.Ctx) error {
	session := h.openSession(c)
	defer session.Dispose()

	err := session.HideWelcomeMessage(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNotifications(c fiber.Ctx) error {
	return c.JSON(h.deps.Toasts.Recent())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checkers := fiber.Map{}
	healthy := true

	for name, checker := range h.deps.Checks {
		if err := checker.HealthCheck(c.Context()); err != nil {
			healthy = false
			checkers[name] = err.Error()

			continue
		}

		checkers[name] = "ok"
	}

	status := "healthy"
	message := "UI actions API is healthy"
	httpStatus := http.StatusOK

	if !healthy {
		status = "unhealthy"
		message = "UI actions API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"checkers":  checkers,
		"timestamp": time.Now().UTC(),
	})
}

// MetricsHandler serves the metrics gathered by gatherer.
func MetricsHandler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

func (h *APIHandlers) parseActionContext(c fiber.Ctx) (ActionContextRequest, error) {
	var req ActionContextRequest

	if len(c.Body()) == 0 {
		return req, nil
	}

	if err := c.Bind().JSON(&req); err != nil {
		return req, err
	}

	return req, nil
}

// openSession opens a drilldown manager session for the place triggers
// listed in the triggers query parameter, every registered trigger when
// it is absent.
func (h *APIHandlers) openSession(c fiber.Ctx) *drilldowns.ManagerState {
	var placeTriggers []string

	if query := c.Query("triggers"); query != "" {
		for _, trigger := range strings.Split(query, ",") {
			if trigger = strings.TrimSpace(trigger); trigger != "" {
				placeTriggers = append(placeTriggers, trigger)
			}
		}
	} else {
		for _, trigger := range h.deps.Service.Triggers() {
			placeTriggers = append(placeTriggers, trigger.ID)
		}
	}

	return drilldowns.NewManagerState(c.Context(), drilldowns.Deps{
		Logger:        h.logger,
		Manager:       h.deps.Manager,
		Factories:     h.deps.Factories,
		Triggers:      h.deps.Service,
		Toasts:        h.deps.Toasts,
		Storage:       h.deps.Storage,
		PlaceTriggers: placeTriggers,
	})
}

type configValidator interface {
	ValidateConfig(config map[string]any, fctx models.FactoryContext) error
}

// validateDrilldown explains why a drilldown form cannot be saved.
func validateDrilldown(drilldown *drilldowns.DrilldownState) error {
	uiTriggers := drilldown.UITriggers()
	for _, trigger := range drilldown.Triggers().Get() {
		if !slices.Contains(uiTriggers, trigger) {
			return fmt.Errorf("%w: trigger %s is not available for %s", drilldowns.ErrInvalidDrilldown, trigger, drilldown.Factory().ID())
		}
	}

	if validating, ok := drilldown.Factory().(configValidator); ok {
		if err := validating.ValidateConfig(drilldown.Config().Get(), drilldown.FactoryContext()); err != nil {
			return err
		}
	}

	return nil
}

func executeResponse(location *navigation.Location, opened *overlays.Opened) ExecuteResponse {
	if opened != nil {
		if menuID := opened.MenuID(); menuID != "" {
			return ExecuteResponse{Result: ResultMenu, MenuID: menuID}
		}
	}

	if href := location.Href(); href != "" {
		return ExecuteResponse{Result: ResultNavigated, Href: href}
	}

	return ExecuteResponse{Result: ResultExecuted}
}
