package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/metallic-erp/support-hub/internal/api/http/handlers"
	"github.com/metallic-erp/support-hub/internal/auth"
	"github.com/metallic-erp/support-hub/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	Assistant      *handlers.AssistantHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/internal/profiles", cfg.Users.InternalProfiles)
	authGroup.Post("/internal/login", cfg.Users.InternalLogin)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/auth/logout", cfg.Users.Logout)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	staffOnly := auth.RequireRole(domain.RoleDeveloper, domain.RoleAdmin)
	tickets.Patch("/:id/status", staffOnly, cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assignees", staffOnly, cfg.Tickets.UpdateAssignees)
	tickets.Post("/:id/archive", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ArchiveTicket)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users/developers", cfg.Admin.AddDeveloper)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)

	assistant := protected.Group("/assistant")
	assistant.Post("/chat", cfg.Assistant.Chat)
	assistant.Post("/resolution-note", staffOnly, cfg.Assistant.ResolutionNote)
}
