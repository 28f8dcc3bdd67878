package web

import (
	"errors"

	"github.com/dukex/uiactions/pkg/drilldowns"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/overlays"
	"github.com/dukex/uiactions/pkg/persistence"
	"github.com/dukex/uiactions/pkg/registry"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// handleError maps domain errors to problem responses.
func handleError(c fiber.Ctx, err error) error {
	status, kind := classify(err)

	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind)

	if status == fiber.StatusInternalServerError {
		problem = problem.WithError(err)
	} else {
		problem = problem.WithDetail(err.Error())
	}

	return c.Status(status).JSON(problem)
}

func classify(err error) (int, string) {
	switch {
	case uiactions.IsNotFound(err):
		return fiber.StatusNotFound, "not_found"
	case persistence.IsEventNotFound(err):
		return fiber.StatusNotFound, "drilldown_not_found"
	case errors.Is(err, overlays.ErrMenuNotFound):
		return fiber.StatusNotFound, "menu_not_found"
	case errors.Is(err, models.ErrMenuItemNotFound):
		return fiber.StatusNotFound, "menu_item_not_found"
	case uiactions.IsDuplicateRegistration(err), persistence.IsEventAlreadyExists(err):
		return fiber.StatusConflict, "conflict"
	case uiactions.IsNoCompatibleActions(err):
		return fiber.StatusUnprocessableEntity, "no_compatible_actions"
	case errors.Is(err, drilldowns.ErrInsufficientLicense):
		return fiber.StatusForbidden, "insufficient_license"
	case errors.Is(err, drilldowns.ErrInvalidDrilldown), errors.Is(err, registry.ErrInvalidConfig):
		return fiber.StatusBadRequest, "validation_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}
