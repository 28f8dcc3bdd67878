package web

import "github.com/gofiber/fiber/v3"

// Register mounts the API routes on router.
func (h *APIHandlers) Register(router fiber.Router) {
	t := router.Group("/triggers")
	t.Get("/", h.GetTriggers)
	t.Get("/:id", h.GetTrigger)
	t.Get("/:id/actions", h.GetTriggerActions)
	t.Post("/:id/actions/:actionId", h.AttachAction)
	t.Delete("/:id/actions/:actionId", h.DetachAction)
	t.Post("/:id/compatible-actions", h.GetCompatibleActions)
	t.Post("/:id/execute", h.ExecuteTrigger)

	router.Get("/actions", h.GetActions)

	m := router.Group("/menus")
	m.Get("/", h.GetMenus)
	m.Get("/:id", h.GetMenu)
	m.Post("/:id/select", h.SelectMenuItem)
	m.Delete("/:id", h.CancelMenu)

	router.Get("/drilldown-types", h.GetDrilldownTypes)

	d := router.Group("/drilldowns")
	d.Get("/", h.GetDrilldowns)
	d.Post("/", h.CreateDrilldown)
	d.Delete("/welcome-message", h.HideWelcomeMessage)
	d.Patch("/:id", h.UpdateDrilldown)
	d.Delete("/:id", h.DeleteDrilldown)

	router.Get("/notifications", h.GetNotifications)
	router.Get("/health", h.HealthCheck)

	if h.deps.Gatherer != nil {
		router.Get("/metrics", MetricsHandler(h.deps.Gatherer))
	}
}
