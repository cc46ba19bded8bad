package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Accounts *handlers.AccountsHandler
	Filter   *auth.Filter
}

// RegisterRoutes wires HTTP routes. The authentication filter runs on every
// route below it; public routes stay reachable because the filter passes
// requests without a bearer credential straight through.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(cfg.Filter.Handle)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "welcome"})
	})

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	accounts := app.Group("/accounts", auth.RequireAuthenticated())
	accounts.Get("/me", cfg.Accounts.Me)

	admin := app.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Accounts.List)
}
