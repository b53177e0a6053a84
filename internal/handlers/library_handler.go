package handlers

import (
	"log/slog"

	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/middleware"
	"github.com/bouleverse/bookvault/internal/models"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/gofiber/fiber/v2"
)

type LibraryHandler struct {
	entitlements *services.EntitlementService
}

func NewLibraryHandler(entitlements *services.EntitlementService) *LibraryHandler {
	return &LibraryHandler{entitlements: entitlements}
}

// List returns the user's bundle entitlements newest-first plus the current
// app-access state. Backs the library page.
func (h *LibraryHandler) List(c *fiber.Ctx) error {
	email := middleware.SessionEmail(c)

	rows, err := h.entitlements.ListEntitlements(email)
	if err != nil {
		slog.Error("failed to list entitlements", "action", "library", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	status, active, _, err := h.entitlements.AppAccessStatus(email)
	if err != nil {
		slog.Error("failed to read app access", "action", "library", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	out := make([]dto.EntitlementResponse, 0, len(rows))
	for _, row := range rows {
		if row.ProductType != models.ProductBundle {
			continue
		}
		out = append(out, dto.EntitlementResponse{
			ID:          row.ID,
			Slug:        row.Slug,
			Format:      row.Format,
			ProductType: row.ProductType,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
		})
	}

	return c.JSON(dto.LibraryResponse{
		Entitlements: out,
		AppAccess:    dto.AppAccessResponse{Status: status, Active: active},
	})
}
