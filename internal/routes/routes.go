package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/habitloop/habitloop-backend/internal/config"
	"github.com/habitloop/habitloop-backend/internal/gamification"
	"github.com/habitloop/habitloop-backend/internal/habit"
	"github.com/habitloop/habitloop-backend/internal/handlers"
	"github.com/habitloop/habitloop-backend/internal/middleware"
	"github.com/habitloop/habitloop-backend/internal/syncqueue"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	habitHandler *habit.Handler,
	gamificationHandler *gamification.Handler,
	syncHandler *syncqueue.Handler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Everything the engine exposes requires an authenticated user.
	protected := api.Group("/p", middleware.JWTProtected(cfg))

	protected.Post("/habits", habitHandler.CreateHabit)
	protected.Get("/habits", habitHandler.ListHabits)
	protected.Get("/habits/:id", habitHandler.GetHabit)
	protected.Put("/habits/:id", habitHandler.UpdateHabit)
	protected.Delete("/habits/:id", habitHandler.ArchiveHabit)

	protected.Post("/habits/:id/complete", habitHandler.RecordCompletion)
	protected.Delete("/habits/:id/complete", habitHandler.UndoCompletion)

	protected.Get("/habits/:id/stats", habitHandler.GetStatistics)
	protected.Get("/habits/:id/reminders", habitHandler.ListReminders)
	protected.Post("/habits/:id/reminders", habitHandler.AddReminder)
	protected.Delete("/reminders/:id", habitHandler.DeleteReminder)

	protected.Get("/calendar", habitHandler.GetCalendar)
	protected.Get("/dashboard", habitHandler.GetDashboard)
	protected.Get("/recommendations", habitHandler.GetRecommendations)

	protected.Get("/gamification", gamificationHandler.GetState)
	protected.Post("/sync/completions", syncHandler.Replay)
}
