package payments

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ParseEvent verifies the Stripe-Signature header over the raw payload and
// decodes the event into one of the typed variants. A nil, nil return means
// a validly signed event of a kind the ledger does not care about. Any
// error means the body must not be processed.
func ParseEvent(payload []byte, sigHeader, secret string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("malformed checkout session payload: %w", err)
		}
		return checkoutCompletedFrom(&sess), nil

	case "customer.subscription.updated":
		sub, err := subscriptionFrom(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		return SubscriptionChanged{
			SubscriptionID: sub.ID,
			Status:         string(sub.Status),
		}, nil

	case "customer.subscription.deleted":
		sub, err := subscriptionFrom(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		// Deletion is terminal regardless of the status snapshot.
		return SubscriptionChanged{
			SubscriptionID: sub.ID,
			Status:         "canceled",
		}, nil

	default:
		return nil, nil
	}
}

func checkoutCompletedFrom(sess *stripe.CheckoutSession) CheckoutCompleted {
	email := ""
	if sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		email = sess.CustomerEmail
	}

	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	return CheckoutCompleted{
		SessionID:      sess.ID,
		Email:          email,
		Mode:           string(sess.Mode),
		SubscriptionID: subscriptionID,
		Slug:           sess.Metadata["slug"],
		Format:         sess.Metadata["format"],
		ProductType:    sess.Metadata["product_type"],
		Metadata:       sess.Metadata,
	}
}

func subscriptionFrom(raw json.RawMessage) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("malformed subscription payload: %w", err)
	}
	return &sub, nil
}
