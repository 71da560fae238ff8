package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roster-service/internal/api/http/handlers"
	"github.com/spec-kit/roster-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Roster         *handlers.RosterHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	roster := app.Group("/orgs/:org_id/roster",
		cfg.AuthMiddleware.Handle,
		auth.RequireRole(auth.RoleHRAdmin, auth.RoleHRManager))

	roster.Post("/preview", cfg.Roster.Preview)
	roster.Post("/preview/file", cfg.Roster.PreviewFile)
	roster.Post("/import", cfg.Roster.Import)
	roster.Post("/import/file", cfg.Roster.ImportFile)
	roster.Post("/import/cancel", cfg.Roster.Cancel)
	roster.Get("/import/pending", cfg.Roster.Pending)
}
