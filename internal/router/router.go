package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portfolio-go-api/internal/config"
	"github.com/noah-isme/portfolio-go-api/internal/handler"
	"github.com/noah-isme/portfolio-go-api/internal/middleware"
	"github.com/noah-isme/portfolio-go-api/internal/observability"
	"github.com/noah-isme/portfolio-go-api/internal/session"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler   *handler.AssignmentHandler
	StepHandler         *handler.StepHandler
	AttachmentHandler   *handler.AttachmentHandler
	ReviewHandler       *handler.ReviewHandler
	NotificationHandler *handler.NotificationHandler
	PortfolioHandler    *handler.PortfolioHandler
	AuthHandler         *handler.AuthHandler
	HealthProbes        map[string]handler.HealthProbe
	AuthMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	if deps.PortfolioHandler != nil {
		deps.PortfolioHandler.Register(api.Group("/public"))
	}

	// Use provided auth middleware, or a no-op if nil
	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", authMiddleware)
	writeLimit := writesOnly(middleware.RateLimit("portfolio", cfg.RateLimitMax, cfg.RateLimitWindow))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(v2.Group("/auth"))
	}

	assignments := v2.Group("/assignments", writeLimit)
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments)
	}
	if deps.StepHandler != nil {
		deps.StepHandler.Register(assignments)
	}
	if deps.AttachmentHandler != nil {
		deps.AttachmentHandler.Register(assignments)
	}

	if deps.ReviewHandler != nil {
		review := v2.Group("/review", middleware.RequireRole(session.RoleTeacher, session.RoleAdmin), writeLimit)
		deps.ReviewHandler.Register(review)
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(v2.Group("/notifications"))
	}
}

// writesOnly applies limit to mutating requests. Draft autosaves and
// uploads are rate limited while reads stay unthrottled.
func writesOnly(limit fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		default:
			return limit(c)
		}
	}
}
