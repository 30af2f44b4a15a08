package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opendesk/helpdesk-service/internal/api/http/handlers"
	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Users    *handlers.UsersHandler
	Services *handlers.ServicesHandler
	Tickets  *handlers.TicketsHandler
	Health   *handlers.HealthHandler
}

// RegisterRoutes mounts the full route table.
func RegisterRoutes(app *fiber.App, h Handlers, authMiddleware *auth.Middleware) {
	health := app.Group("/health")
	health.Get("/live", h.Health.Live)
	health.Get("/ready", h.Health.Ready)

	users := app.Group("/users")
	users.Post("/login", h.Users.Login)
	users.Post("/client", h.Users.CreateClient)
	users.Get("/picture/:id", h.Users.GetPicture)

	users.Post("/tech", authMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), h.Users.CreateTech)
	users.Get("/techList", authMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), h.Users.ListTechs)
	users.Get("/clientList", authMiddleware.Handle, auth.RequireRole(domain.RoleAdmin), h.Users.ListClients)
	users.Put("/admin/:id", authMiddleware.Handle, h.Users.UpdateAdmin)
	users.Put("/tech/:id", authMiddleware.Handle, h.Users.UpdateTech)
	users.Put("/client/:id", authMiddleware.Handle, h.Users.UpdateClient)
	users.Put("/techAvailabilities/:id", authMiddleware.Handle, h.Users.UpdateAvailabilities)
	users.Put("/picture/:id", authMiddleware.Handle, h.Users.UpdatePicture)
	users.Delete("/client/:id", authMiddleware.Handle, h.Users.DeleteClient)

	services := app.Group("/services", authMiddleware.Handle)
	services.Get("/list", auth.RequireAuthenticated(), h.Services.List)
	services.Post("/", auth.RequireRole(domain.RoleAdmin), h.Services.Create)
	services.Put("/:id", auth.RequireRole(domain.RoleAdmin), h.Services.Update)
	services.Delete("/:id", auth.RequireRole(domain.RoleAdmin), h.Services.Deactivate)

	tickets := app.Group("/tickets", authMiddleware.Handle)
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/clientHistory", h.Tickets.ClientHistory)
	tickets.Get("/tech", h.Tickets.TechTickets)
	tickets.Get("/list", h.Tickets.ListAll)
	tickets.Put("/addServices/:ticketId", h.Tickets.AddServices)
	tickets.Put("/status/:ticketId", h.Tickets.UpdateStatus)
}
