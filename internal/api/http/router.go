package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itsmkit/helpdesk-service/internal/api/http/handlers"
	"github.com/itsmkit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	Rag            *handlers.RagHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.Admin.ListAllTickets)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/engineers", cfg.Admin.ListEngineers)
	admin.Get("/admins", cfg.Admin.ListAdmins)
	admin.Get("/users/:userId/tickets", cfg.Admin.ListUserTickets)
	admin.Patch("/tickets/assign/engineer", cfg.Admin.AssignToEngineer)
	admin.Patch("/tickets/assign/admin", cfg.Admin.AssignToAdmin)
	admin.Patch("/tickets/:id/status", cfg.Admin.UpdateStatus)
	admin.Patch("/tickets/:id/priority", cfg.Admin.UpdatePriority)
	admin.Post("/tickets/:id/comments", cfg.Admin.AddComment)
	admin.Delete("/tickets/:id", cfg.Admin.DeleteTicket)
	admin.Patch("/users/:userId", cfg.Admin.UpdateUser)
	admin.Delete("/users/:userId", cfg.Admin.DeleteUser)

	api.Post("/rag/ask", cfg.Rag.Ask)
}
