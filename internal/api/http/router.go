package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/r3-fresh/tickets-management-sub000/internal/api/http/handlers"
	"github.com/r3-fresh/tickets-management-sub000/internal/auth"
	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Workflow       *handlers.WorkflowHandler
	Comments       *handlers.CommentsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Get("/attention-areas", cfg.Tickets.ListAttentionAreas)
	api.Post("/attachments", cfg.Comments.RegisterUpload)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/dashboard", cfg.Tickets.Dashboard)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Put("/:id/watchers", cfg.Tickets.UpdateWatchers)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Post("/:id/attachments/link", cfg.Comments.LinkAttachments)

	// Creator actions; the service checks ownership.
	tickets.Post("/:id/validation/approve", cfg.Workflow.Approve())
	tickets.Post("/:id/validation/reject", cfg.Workflow.Reject())
	tickets.Post("/:id/cancel", cfg.Workflow.Cancel())

	requireAgent := auth.RequireAgent()
	tickets.Post("/:id/assign-self", requireAgent, cfg.Workflow.AssignToSelf())
	tickets.Post("/:id/unassign", requireAgent, cfg.Workflow.Unassign())
	tickets.Put("/:id/status", requireAgent, cfg.Workflow.SetStatus())
	tickets.Post("/:id/validation/request", requireAgent, cfg.Workflow.RequestValidation())
	tickets.Post("/:id/assign", auth.RequireAdmin(), cfg.Workflow.AssignTo())
}
