package middleware

import (
	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/gofiber/fiber/v2"
)

const emailLocal = "email"

// SessionProtected rejects requests without a valid session cookie. The
// response never distinguishes an expired session from no session at all.
func SessionProtected(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, ok := sessions.CurrentEmail(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized", Code: "UNAUTHORIZED",
			})
		}
		c.Locals(emailLocal, email)
		return c.Next()
	}
}

// SessionEmail returns the identity stored by SessionProtected.
func SessionEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals(emailLocal).(string); ok {
		return email
	}
	return ""
}
