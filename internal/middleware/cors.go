package middleware

import (
	"github.com/bouleverse/bookvault/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		// The frontend is served same-origin, so the session cookie never
		// travels cross-origin. A cross-origin frontend would need this
		// flipped and CORS_ORIGINS narrowed to explicit origins.
		AllowCredentials: false,
	})
}
