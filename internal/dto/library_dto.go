package dto

import (
	"time"

	"github.com/google/uuid"
)

type EntitlementResponse struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Format      string    `json:"format"`
	ProductType string    `json:"product_type"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AppAccessResponse struct {
	Status string `json:"status,omitempty"`
	Active bool   `json:"active"`
}

type LibraryResponse struct {
	Entitlements []EntitlementResponse `json:"entitlements"`
	AppAccess    AppAccessResponse     `json:"app_access"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type PortalRequest struct {
	Locale string `json:"locale"`
}
