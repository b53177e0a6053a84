package handlers

import (
	"log/slog"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/payments"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	cfg          *config.Config
	entitlements *services.EntitlementService
}

func NewWebhookHandler(cfg *config.Config, entitlements *services.EntitlementService) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, entitlements: entitlements}
}

// HandleStripe verifies the event signature before touching the body, then
// reconciles it into the ledger. Processing failures return 500 so the
// provider retries delivery; this core never retries on its own.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	if h.cfg.StripeWebhookSecret == "" {
		slog.Error("stripe webhook secret not configured", "action", "webhook")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhook config missing",
		})
	}

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing Stripe signature",
		})
	}

	event, err := payments.ParseEvent(c.Body(), signature, h.cfg.StripeWebhookSecret)
	if err != nil {
		slog.Warn("stripe webhook rejected", "action", "webhook", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook signature",
		})
	}
	if event == nil {
		// Validly signed but not a kind the ledger reconciles.
		return c.JSON(fiber.Map{"received": true})
	}

	if err := h.entitlements.ApplyEvent(event); err != nil {
		slog.Error("webhook processing failed", "action", "webhook", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
