package routes

import (
	"time"

	"github.com/arigatojournal/arigato-backend/internal/config"
	"github.com/arigatojournal/arigato-backend/internal/handlers"
	"github.com/arigatojournal/arigato-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	relationshipHandler *handlers.RelationshipHandler,
	messageHandler *handlers.MessageHandler,
	healthHandler *handlers.HealthHandler,
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

	// Auth — public, with a stricter rate limit: 10 req/min per IP
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

	// Everything below requires a valid access token.
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/me", userHandler.Me)
	protected.Put("/me", userHandler.UpdateProfile)
	protected.Put("/me/fcm-token", userHandler.SetFCMToken)
	protected.Get("/me/following", userHandler.Following)
	protected.Get("/me/followers", userHandler.Followers)
	protected.Get("/me/blocked", userHandler.Blocked)
	protected.Get("/me/recipients", userHandler.Recipients)

	protected.Get("/users/search", userHandler.Search)
	protected.Get("/users/:id", userHandler.Profile)

	protected.Post("/follows/:id", relationshipHandler.Follow)
	protected.Delete("/follows/:id", relationshipHandler.Unfollow)
	protected.Post("/blocks/:id", relationshipHandler.Block)
	protected.Delete("/blocks/:id", relationshipHandler.Unblock)

	protected.Post("/messages", messageHandler.Send)
	protected.Get("/messages/received", messageHandler.Received)
	protected.Get("/messages/received/:id", messageHandler.ReceivedDetail)
	protected.Get("/messages/sent", messageHandler.Sent)
	protected.Get("/messages/sent/:id", messageHandler.SentDetail)
	protected.Get("/messages/timeline", messageHandler.Timeline)
	protected.Get("/messages/unread-count", messageHandler.UnreadCount)

	protected.Get("/threads/:id", messageHandler.Thread)
	protected.Post("/threads/:id/reply", messageHandler.Reply)
}
