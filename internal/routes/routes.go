package routes

import (
	"time"

	"github.com/bouleverse/bookvault/internal/handlers"
	"github.com/bouleverse/bookvault/internal/middleware"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	sessions *session.Manager,
	authHandler *handlers.AuthHandler,
	libraryHandler *handlers.LibraryHandler,
	readerHandler *handlers.ReaderHandler,
	webhookHandler *handlers.WebhookHandler,
	portalHandler *handlers.PortalHandler,
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

	// Auth — magic-link issuance is abuse-prone, so a stricter limit:
	// 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/request-link", authHandler.RequestLink)
	auth.Get("/verify", authHandler.Verify)
	auth.Post("/logout", authHandler.Logout)

	// Session-gated routes
	guard := middleware.SessionProtected(sessions)
	api.Get("/library", guard, libraryHandler.List)
	api.Get("/reader/file", guard, readerHandler.File)
	api.Post("/stripe/portal", guard, portalHandler.Create)

	// Webhooks — authenticated by provider signature, never by session
	api.Post("/stripe/webhook", webhookHandler.HandleStripe)
}
