package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product types recorded on entitlement rows.
const (
	ProductBundle    = "bundle"     // one-time purchase, permanent access to one (slug, format)
	ProductAppAccess = "app_access" // recurring subscription, gated by live status
)

// Subscription statuses after provider-status mapping.
const (
	StatusActive     = "active"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusIncomplete = "incomplete"
)

// Entitlement is one ledger row: an email may access a product/format, or
// holds a subscription. StripeSessionID is the idempotency key for webhook
// upserts; bundle rows are immutable once created, app_access rows track the
// provider-reported subscription status.
type Entitlement struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserEmail            string         `gorm:"not null;size:255;index" json:"user_email"`
	Slug                 string         `gorm:"not null;size:100" json:"slug"`
	Format               string         `gorm:"not null;size:20" json:"format"`
	ProductType          string         `gorm:"not null;size:20" json:"product_type"`
	Status               string         `gorm:"size:30" json:"status"`
	StripeSessionID      string         `gorm:"uniqueIndex;not null;size:255" json:"-"`
	StripeSubscriptionID *string        `gorm:"size:255;index" json:"-"`
	Metadata             datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// GrantsAppAccess reports whether a subscription row currently grants
// access. Trialing is normalized to active at write time, but rows written
// before the mapping existed may still carry it.
func (e *Entitlement) GrantsAppAccess() bool {
	return e.ProductType == ProductAppAccess &&
		(e.Status == StatusActive || e.Status == "trialing")
}
