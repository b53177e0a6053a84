package session

import (
	"time"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/gofiber/fiber/v2"
)

const CookieName = "session"

const maxAge = 7 * 24 * time.Hour

// Manager issues and reads the session cookie. There is no server-side
// session registry: the client holds the only copy, and logout is cookie
// clearing. A leaked credential stays valid until cookie expiry or secret
// rotation.
type Manager struct {
	cfg *config.Config
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// Start signs a credential for email and attaches it as the session cookie.
func (m *Manager) Start(c *fiber.Ctx, email string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    Sign(email, m.cfg.AuthSecret),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   m.cfg.IsProduction(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CurrentEmail returns the verified identity from the request's session
// cookie, or ("", false) when there is no valid session.
func (m *Manager) CurrentEmail(c *fiber.Ctx) (string, bool) {
	value := c.Cookies(CookieName)
	if value == "" {
		return "", false
	}
	return Verify(value, m.cfg.AuthSecret)
}

// End clears the session cookie.
func (m *Manager) End(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   0,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.IsProduction(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
