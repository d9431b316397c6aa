package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/online-booking/booking-service/internal/api/http/handlers"
	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
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

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authenticated := auth.RequireAuthenticated()
	authGroup.Get("/profile", cfg.AuthMiddleware.Handle, authenticated, cfg.Auth.Profile)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, authenticated, cfg.Auth.ChangePassword)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/tables", cfg.Admin.Tables)
	admin.Get("/tables/:table/records", cfg.Admin.ListRecords)
	admin.Get("/tables/:table/records/:id", cfg.Admin.GetRecord)
	admin.Patch("/tables/:table/records/:id", cfg.Admin.PatchRecord)
	admin.Delete("/tables/:table/records/:id", cfg.Admin.DeleteRecord)
	admin.Put("/accounts/:id/role", cfg.Admin.UpdateRole)
	admin.Post("/accounts", cfg.Admin.CreateAccount)
}
