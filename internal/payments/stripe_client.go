package payments

import (
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	sub "github.com/stripe/stripe-go/v79/subscription"
)

// SubscriptionStatusFetcher re-reads a subscription's live status from the
// provider. Checkout-completion handling goes through it so the ledger row
// is written with the provider's current state even when the completion
// event arrived after later lifecycle events.
type SubscriptionStatusFetcher interface {
	Status(subscriptionID string) (string, error)
}

// Client talks to the Stripe API using the package-level key set by Init.
type Client struct{}

var _ SubscriptionStatusFetcher = Client{}

func Init(secretKey string) *Client {
	stripe.Key = secretKey
	return &Client{}
}

func (Client) Status(subscriptionID string) (string, error) {
	s, err := sub.Get(subscriptionID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}
	return string(s.Status), nil
}

// PortalURL creates a billing-portal session for the customer owning
// subscriptionID and returns its URL.
func (Client) PortalURL(subscriptionID, returnURL string) (string, error) {
	s, err := sub.Get(subscriptionID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}
	if s.Customer == nil || s.Customer.ID == "" {
		return "", errors.New("subscription has no customer")
	}

	ps, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(s.Customer.ID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return ps.URL, nil
}
