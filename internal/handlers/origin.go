package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// requestOrigin derives the external origin of a request, preferring the
// Origin header, then Referer, then forwarded-host headers.
func requestOrigin(c *fiber.Ctx) string {
	if origin := c.Get(fiber.HeaderOrigin); origin != "" {
		return origin
	}

	if referer := c.Get(fiber.HeaderReferer); referer != "" {
		if u, err := url.Parse(referer); err == nil && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}

	host := c.Get("X-Forwarded-Host")
	if host == "" {
		host = c.Hostname()
	}
	if host == "" {
		return ""
	}
	proto := c.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	return proto + "://" + host
}
