package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/i18n"
	"github.com/bouleverse/bookvault/internal/mail"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	cfg      *config.Config
	tokens   *services.LoginTokenService
	sessions *session.Manager
	mailer   mail.Mailer
}

func NewAuthHandler(cfg *config.Config, tokens *services.LoginTokenService, sessions *session.Manager, mailer mail.Mailer) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens, sessions: sessions, mailer: mailer}
}

// RequestLink issues a magic link for the given email. The response is the
// same whether or not the user already existed.
func (h *AuthHandler) RequestLink(c *fiber.Ctx) error {
	var req dto.RequestLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body", Code: "INVALID_PAYLOAD",
		})
	}

	email := services.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid email", Code: "INVALID_EMAIL",
		})
	}
	locale := i18n.Clamp(strings.TrimSpace(req.Locale))

	token, err := h.tokens.Issue(email)
	if err != nil {
		slog.Error("failed to issue login token", "action", "request_link", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	origin := h.cfg.AppBaseURL
	if origin == "" {
		origin = requestOrigin(c)
	}
	if origin == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Origin missing", Code: "ORIGIN_MISSING",
		})
	}

	loginURL := fmt.Sprintf("%s/api/auth/verify?token=%s&locale=%s",
		origin, url.QueryEscape(token), locale)
	if err := h.mailer.SendLoginLink(email, loginURL); err != nil {
		slog.Error("failed to send login link", "action", "request_link", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.OKResponse{OK: true})
}

// Verify consumes a magic-link token. Failures redirect to the verify page
// with one of the closed reason codes; success starts a session and lands
// on the library.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	token := c.Query("token")
	locale := i18n.Clamp(c.Query("locale"))

	email, err := h.tokens.Redeem(token)
	if err != nil {
		reason, known := redemptionReason(err)
		if !known {
			slog.Error("login token redemption failed", "action", "verify", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		return c.Redirect(fmt.Sprintf("/%s/auth/verify?reason=%s", locale, reason), fiber.StatusFound)
	}

	h.sessions.Start(c, email)
	return c.Redirect(fmt.Sprintf("/%s/library", locale), fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.End(c)
	return c.JSON(dto.OKResponse{OK: true})
}

// redemptionReason maps redemption failures to their user-visible reason
// code. known is false for unexpected (infrastructure) errors.
func redemptionReason(err error) (reason string, known bool) {
	switch {
	case errors.Is(err, services.ErrTokenMissing):
		return "missing", true
	case errors.Is(err, services.ErrTokenInvalid):
		return "invalid", true
	case errors.Is(err, services.ErrTokenExpired):
		return "expired", true
	case errors.Is(err, services.ErrTokenUsed):
		return "used", true
	default:
		return "", false
	}
}
