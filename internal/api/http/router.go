package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jwt-builder/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Catalog  *handlers.CatalogHandler
	Sessions *handlers.SessionsHandler
	Tokens   *handlers.TokensHandler
	// Operator guards everything under /api. Nil leaves the API open.
	Operator fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	if cfg.Operator != nil {
		api.Use(cfg.Operator)
	}

	api.Get("/catalog", cfg.Catalog.Get)

	sessions := api.Group("/sessions")
	sessions.Post("/", cfg.Sessions.Create)
	sessions.Get("/:id", cfg.Sessions.Get)
	sessions.Patch("/:id", cfg.Sessions.Update)
	sessions.Delete("/:id", cfg.Sessions.Delete)
	sessions.Post("/:id/roles", cfg.Sessions.AddRole)
	sessions.Delete("/:id/roles/:role", cfg.Sessions.RemoveRole)
	sessions.Post("/:id/token", cfg.Sessions.IssueToken)

	tokens := api.Group("/tokens")
	tokens.Post("/", cfg.Tokens.Issue)
	tokens.Post("/decode", cfg.Tokens.Decode)
	tokens.Post("/verify", cfg.Tokens.Verify)
}
