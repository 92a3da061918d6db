package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusdesk/service-desk/internal/api/http/handlers"
	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/domain"
	"github.com/campusdesk/service-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}

	tickets := app.Group("/tickets", authenticated...)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/confirm", cfg.Tickets.ConfirmResolution)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)

	notifications := app.Group("/notifications", authenticated...)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Put("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Put("/tickets/bulk", cfg.Admin.BulkUpdate)
	admin.Get("/stats", cfg.Admin.Dashboard)
	admin.Get("/feedback", cfg.Admin.ListFeedback)
	admin.Get("/feedback/stats", cfg.Admin.FeedbackStats)
	admin.Get("/feedback/:ticketId", cfg.Admin.FeedbackByTicket)
}
