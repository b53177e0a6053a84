package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/i18n"
	"github.com/bouleverse/bookvault/internal/middleware"
	"github.com/bouleverse/bookvault/internal/payments"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/gofiber/fiber/v2"
)

// PortalClient creates a provider-hosted subscription management session.
type PortalClient interface {
	PortalURL(subscriptionID, returnURL string) (string, error)
}

var _ PortalClient = payments.Client{}

type PortalHandler struct {
	cfg          *config.Config
	entitlements *services.EntitlementService
	portal       PortalClient
}

func NewPortalHandler(cfg *config.Config, entitlements *services.EntitlementService, portal PortalClient) *PortalHandler {
	return &PortalHandler{cfg: cfg, entitlements: entitlements, portal: portal}
}

// Create returns a billing-portal URL for the user's newest subscription.
func (h *PortalHandler) Create(c *fiber.Ctx) error {
	if h.cfg.StripeSecretKey == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Stripe config missing", Code: "STRIPE_CONFIG_MISSING",
		})
	}

	var req dto.PortalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body", Code: "INVALID_PAYLOAD",
		})
	}
	locale := strings.TrimSpace(req.Locale)
	if !i18n.IsSupportedLocale(locale) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid locale", Code: "INVALID_LOCALE",
		})
	}

	email := middleware.SessionEmail(c)
	subscriptionID, err := h.entitlements.LatestSubscriptionID(email)
	if err != nil {
		slog.Error("failed to look up subscription", "action", "portal", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if subscriptionID == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Subscription not found", Code: "SUBSCRIPTION_NOT_FOUND",
		})
	}

	base := h.cfg.PortalReturnURL
	if base == "" {
		base = h.cfg.AppBaseURL
	}
	if base == "" {
		base = requestOrigin(c)
	}
	if base == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Origin missing", Code: "ORIGIN_MISSING",
		})
	}

	url, err := h.portal.PortalURL(subscriptionID, fmt.Sprintf("%s/%s/library", strings.TrimRight(base, "/"), locale))
	if err != nil {
		slog.Error("portal session creation failed", "action", "portal", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Portal session failed", Code: "PORTAL_FAILED",
		})
	}

	return c.JSON(dto.PortalResponse{URL: url})
}
