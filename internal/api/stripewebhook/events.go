package stripewebhooks

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v75"
)

// Event is the closed set of webhook kinds this service consumes. Dispatch is
// an exhaustive type switch, so adding a kind without a handler is a
// compile-time gap, not a silent string miss.
type Event interface {
	isWebhookEvent()
}

type CheckoutCompleted struct {
	Session *stripe.CheckoutSession
}

type SubscriptionCreated struct {
	Subscription *stripe.Subscription
}

type PaymentSucceeded struct {
	Invoice *stripe.Invoice
}

type PaymentFailed struct {
	Invoice *stripe.Invoice
}

func (CheckoutCompleted) isWebhookEvent()   {}
func (SubscriptionCreated) isWebhookEvent() {}
func (PaymentSucceeded) isWebhookEvent()    {}
func (PaymentFailed) isWebhookEvent()       {}

// parseEvent maps a verified Stripe event to its typed form. (nil, nil) means
// a kind we deliberately ignore; the webhook is still acked so Stripe stops
// redelivering it.
func parseEvent(event stripe.Event) (Event, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return CheckoutCompleted{Session: &session}, nil

	case "customer.subscription.created":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		return SubscriptionCreated{Subscription: &sub}, nil

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to parse invoice: %w", err)
		}
		return PaymentSucceeded{Invoice: &inv}, nil

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to parse invoice: %w", err)
		}
		return PaymentFailed{Invoice: &inv}, nil

	default:
		return nil, nil
	}
}
