package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobappid/verify-portal/internal/api/http/handlers"
	"github.com/jobappid/verify-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Portal   *handlers.PortalHandler
	Sessions *auth.SessionMiddleware
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	portal := app.Group("", cfg.Sessions.Handle)
	portal.Get("/", cfg.Portal.Home)
	portal.Get("/auth", cfg.Portal.AuthPage)
	portal.Post("/auth/:tab", cfg.Portal.SubmitAuth)
	portal.Post("/logout", cfg.Portal.Logout)

	search := portal.Group("/search", auth.RequireAgent())
	search.Post("", cfg.Portal.Search)
	search.Post("/clear", cfg.Portal.ClearSearch)

	agency := portal.Group("/agency", auth.RequireAgency())
	agency.Get("", cfg.Portal.Agency)
	agency.Post("/agents", cfg.Portal.CreateAgent)
	agency.Post("/agents/:id/disable", cfg.Portal.DisableAgent)
	agency.Post("/invites", cfg.Portal.CreateInvite)
}
