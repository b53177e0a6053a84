// Package payments is the boundary to the Stripe payment provider: webhook
// signature verification, a closed set of typed event variants, and the
// small outbound calls the service needs (subscription status, billing
// portal). Everything else in the codebase works with the typed events,
// never with raw provider payloads.
package payments

// Checkout session modes relevant to the ledger.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Event is one of the provider events the ledger reconciles. The set is
// sealed; handlers switch exhaustively over the concrete types.
type Event interface {
	isEvent()
}

// CheckoutCompleted is emitted when a checkout session finishes, for both
// one-time purchases and new subscriptions.
type CheckoutCompleted struct {
	SessionID      string
	Email          string
	Mode           string
	SubscriptionID string

	// Metadata set at checkout creation time by the storefront.
	Slug        string
	Format      string
	ProductType string
	Metadata    map[string]string
}

// SubscriptionChanged is emitted on subscription update and delete events.
// Status carries the raw provider status; deletion reports "canceled".
type SubscriptionChanged struct {
	SubscriptionID string
	Status         string
}

func (CheckoutCompleted) isEvent()   {}
func (SubscriptionChanged) isEvent() {}
