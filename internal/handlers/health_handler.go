package handlers

import (
	"time"

	"github.com/bouleverse/bookvault/internal/database"
	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/vault"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	vault *vault.Vault
}

func NewHealthHandler(v *vault.Vault) *HealthHandler {
	return &HealthHandler{vault: v}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		VaultMode: h.vault.Mode(),
	})
}
