// Package main provides the UI actions API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/uiactions/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger *slog.Logger
	deps   web.Deps
}

func NewAPI(logger *slog.Logger, deps web.Deps) *API {
	return &API{
		logger: logger.With("module", "api"),
		deps:   deps,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.deps)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("UI actions API")
	})

	handlers.Register(app)

	return app
}

// Start serves the API on port until ctx is done.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		a.logger.Info("Shutting down API")

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shutdown API", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Starting API", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
