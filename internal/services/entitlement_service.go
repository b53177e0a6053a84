package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bouleverse/bookvault/internal/models"
	"github.com/bouleverse/bookvault/internal/payments"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subscription entitlements always carry these sentinel values: app access
// gates the whole product family, not a specific book.
const (
	AppAccessSlug   = "boule-apps"
	AppAccessFormat = "standard"
)

var appAccessStatuses = []string{models.StatusActive, "trialing"}

// EntitlementService reconciles payment-provider events into the ledger and
// answers access questions. Every event handler is idempotent under
// at-least-once, possibly out-of-order delivery.
type EntitlementService struct {
	db     *gorm.DB
	status payments.SubscriptionStatusFetcher
}

func NewEntitlementService(db *gorm.DB, status payments.SubscriptionStatusFetcher) *EntitlementService {
	return &EntitlementService{db: db, status: status}
}

// ApplyEvent dispatches a typed provider event to its handler.
func (s *EntitlementService) ApplyEvent(event payments.Event) error {
	switch ev := event.(type) {
	case payments.CheckoutCompleted:
		return s.handleCheckoutCompleted(ev)
	case payments.SubscriptionChanged:
		return s.handleSubscriptionChanged(ev)
	default:
		return fmt.Errorf("unhandled payment event type %T", event)
	}
}

func (s *EntitlementService) handleCheckoutCompleted(ev payments.CheckoutCompleted) error {
	email := NormalizeEmail(ev.Email)

	if ev.Mode == payments.ModeSubscription || ev.ProductType == models.ProductAppAccess {
		return s.reconcileSubscriptionCheckout(email, ev)
	}

	// One-time bundle purchase. Incomplete metadata means the session was
	// not created by this storefront; acknowledge and skip.
	if email == "" || ev.Slug == "" || ev.Format == "" {
		slog.Warn("checkout completed without required metadata, skipping",
			"action", "checkout_completed", "session_id", ev.SessionID)
		return nil
	}

	row := models.Entitlement{
		ID:              uuid.New(),
		UserEmail:       email,
		Slug:            ev.Slug,
		Format:          ev.Format,
		ProductType:     models.ProductBundle,
		StripeSessionID: ev.SessionID,
		Metadata:        metadataJSON(ev.Metadata),
	}
	// Insert-or-ignore on the payment-session id makes redelivery a no-op.
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_session_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert bundle entitlement: %w", err)
	}
	return nil
}

func (s *EntitlementService) reconcileSubscriptionCheckout(email string, ev payments.CheckoutCompleted) error {
	if email == "" {
		slog.Warn("subscription checkout without customer email, skipping",
			"action", "checkout_completed", "session_id", ev.SessionID)
		return nil
	}

	// Re-read the live subscription status so a completion event that
	// arrives after later lifecycle events still writes the current state.
	status := models.StatusActive
	if ev.SubscriptionID != "" && s.status != nil {
		provider, err := s.status.Status(ev.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to read subscription status: %w", err)
		}
		status = MapProviderStatus(provider)
	}

	var subscriptionID *string
	if ev.SubscriptionID != "" {
		id := ev.SubscriptionID
		subscriptionID = &id
	}

	if subscriptionID != nil {
		var existing models.Entitlement
		err := s.db.Where("stripe_subscription_id = ?", *subscriptionID).First(&existing).Error
		if err == nil {
			return s.db.Model(&existing).Updates(map[string]interface{}{
				"status":   status,
				"metadata": metadataJSON(ev.Metadata),
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up subscription entitlement: %w", err)
		}
	}

	row := models.Entitlement{
		ID:                   uuid.New(),
		UserEmail:            email,
		Slug:                 AppAccessSlug,
		Format:               AppAccessFormat,
		ProductType:          models.ProductAppAccess,
		Status:               status,
		StripeSessionID:      ev.SessionID,
		StripeSubscriptionID: subscriptionID,
		Metadata:             metadataJSON(ev.Metadata),
	}
	// Two concurrent deliveries for the same new subscription race on the
	// insert; the session-id conflict target collapses them to one row.
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "stripe_subscription_id", "metadata",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription entitlement: %w", err)
	}
	return nil
}

func (s *EntitlementService) handleSubscriptionChanged(ev payments.SubscriptionChanged) error {
	if ev.SubscriptionID == "" {
		return nil
	}

	result := s.db.Model(&models.Entitlement{}).
		Where("stripe_subscription_id = ?", ev.SubscriptionID).
		Update("status", MapProviderStatus(ev.Status))
	if result.Error != nil {
		return fmt.Errorf("failed to update subscription status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Update arrived before the checkout-completion event created the
		// row; the completion handler re-reads the live status.
		slog.Warn("subscription event for unknown subscription",
			"action", "subscription_changed", "subscription_id", ev.SubscriptionID)
	}
	return nil
}

// MapProviderStatus maps a raw provider subscription status to the ledger's
// status vocabulary. Unknown statuses pass through verbatim.
func MapProviderStatus(status string) string {
	switch status {
	case "active", "trialing":
		return models.StatusActive
	case "past_due", "unpaid":
		return models.StatusPastDue
	case "canceled":
		return models.StatusCanceled
	case "incomplete", "incomplete_expired":
		return models.StatusIncomplete
	default:
		return status
	}
}

// HasAccess reports whether email may access (slug, format): either a
// bundle row matches exactly, or any app_access row is currently active.
func (s *EntitlementService) HasAccess(email, slug, format string) (bool, error) {
	email = NormalizeEmail(email)

	var count int64
	err := s.db.Model(&models.Entitlement{}).
		Where("user_email = ? AND slug = ? AND format = ? AND product_type = ?",
			email, slug, format, models.ProductBundle).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bundle entitlement: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	err = s.db.Model(&models.Entitlement{}).
		Where("user_email = ? AND product_type = ? AND status IN ?",
			email, models.ProductAppAccess, appAccessStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check app access: %w", err)
	}
	return count > 0, nil
}

// ListEntitlements returns the full ledger for a user, newest first.
func (s *EntitlementService) ListEntitlements(email string) ([]models.Entitlement, error) {
	var rows []models.Entitlement
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return rows, nil
}

// AppAccessStatus returns the status of the newest app_access row and
// whether it currently grants access. ok is false when the user has no
// subscription row at all.
func (s *EntitlementService) AppAccessStatus(email string) (status string, active bool, ok bool, err error) {
	var row models.Entitlement
	e := s.db.Where("user_email = ? AND product_type = ?", NormalizeEmail(email), models.ProductAppAccess).
		Order("created_at DESC").
		First(&row).Error
	if e != nil {
		if errors.Is(e, gorm.ErrRecordNotFound) {
			return "", false, false, nil
		}
		return "", false, false, fmt.Errorf("failed to read app access status: %w", e)
	}
	return row.Status, row.GrantsAppAccess(), true, nil
}

// LatestSubscriptionID returns the newest subscription id on record for the
// user, or "" when there is none.
func (s *EntitlementService) LatestSubscriptionID(email string) (string, error) {
	var row models.Entitlement
	err := s.db.Where("user_email = ? AND product_type = ? AND stripe_subscription_id IS NOT NULL",
		NormalizeEmail(email), models.ProductAppAccess).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up subscription: %w", err)
	}
	if row.StripeSubscriptionID == nil {
		return "", nil
	}
	return *row.StripeSubscriptionID, nil
}

func metadataJSON(m map[string]string) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
