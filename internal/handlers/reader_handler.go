package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/i18n"
	"github.com/bouleverse/bookvault/internal/middleware"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/bouleverse/bookvault/internal/vault"
	"github.com/gofiber/fiber/v2"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type ReaderHandler struct {
	entitlements *services.EntitlementService
	vault        *vault.Vault
}

func NewReaderHandler(entitlements *services.EntitlementService, v *vault.Vault) *ReaderHandler {
	return &ReaderHandler{entitlements: entitlements, vault: v}
}

// File streams a gated asset. Input is validated before any store access;
// then 403 without an entitlement, 404 when the catalog misses even after
// locale fallback. The resolver itself does no authorization.
func (h *ReaderHandler) File(c *fiber.Ctx) error {
	slug := c.Query("slug")
	locale := c.Query("locale")
	format := c.Query("format")
	asset := c.Query("asset")

	if slug == "" || !slugPattern.MatchString(slug) {
		return badRequest(c, "Invalid slug", "INVALID_SLUG")
	}
	if !i18n.IsSupportedLocale(locale) {
		return badRequest(c, "Invalid locale", "INVALID_LOCALE")
	}
	if format != vault.FormatStandard && format != vault.FormatA5 {
		return badRequest(c, "Invalid format", "INVALID_FORMAT")
	}
	if asset != vault.AssetInteractive && asset != vault.AssetEbook {
		return badRequest(c, "Invalid asset", "INVALID_ASSET")
	}

	email := middleware.SessionEmail(c)
	allowed, err := h.entitlements.HasAccess(email, slug, format)
	if err != nil {
		slog.Error("entitlement check failed", "action", "reader_file", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Forbidden", Code: "FORBIDDEN",
		})
	}

	resolved, err := h.vault.Resolve(c.UserContext(), slug, locale, format, asset)
	if err != nil {
		slog.Error("asset resolution failed", "action", "reader_file", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if resolved == nil {
		return notFound(c)
	}

	body, contentType, size, err := h.vault.Open(c.UserContext(), resolved)
	if err != nil {
		if errors.Is(err, vault.ErrAssetUnavailable) {
			return notFound(c)
		}
		slog.Error("asset open failed", "action", "reader_file", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	isDownload := asset == vault.AssetEbook && c.Query("download") == "1"
	filename := fmt.Sprintf("%s-interactive.pdf", slug)
	if asset == vault.AssetEbook {
		filename = fmt.Sprintf("%s-%s-%s-ebook.pdf", slug, locale, format)
	}
	disposition := "inline"
	if isDownload {
		disposition = "attachment"
	}

	c.Set(fiber.HeaderCacheControl, "private, no-store")
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.Set(fiber.HeaderContentType, contentType)

	if size >= 0 {
		return c.SendStream(body, int(size))
	}
	return c.SendStream(body)
}

func badRequest(c *fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message, Code: code,
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: "Not found", Code: "NOT_FOUND",
	})
}
