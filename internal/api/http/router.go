package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	// Registered before "/:id" so the literal segment wins.
	tickets.Get("/next-number", cfg.Tickets.NextNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	categories := api.Group("/categories", cfg.AuthMiddleware.Handle)
	categories.Get("", cfg.Categories.ListCategories)
	categories.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Categories.CreateCategory)
	categories.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Categories.UpdateCategory)
	categories.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Categories.DeleteCategory)
	categories.Post("/:id/subcategories", auth.RequireRole(domain.RoleAdmin), cfg.Categories.CreateSubcategory)

	groups := api.Group("/assignment-groups", cfg.AuthMiddleware.Handle)
	groups.Get("", cfg.Categories.ListAssignmentGroups)
	groups.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Categories.CreateAssignmentGroup)

	notifications := api.Group("/notifications", cfg.AuthMiddleware.Handle)
	notifications.Get("", cfg.Notifications.ListNotifications)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)
}
