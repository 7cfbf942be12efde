package stripeapi

import (
	"context"
	"os"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"
	"github.com/stripe/stripe-go/v75/price"
	"github.com/stripe/stripe-go/v75/subscription"
)

// DefaultTimeout bounds every outbound Stripe call. Webhook handlers and
// freeze actions block on these calls, so they must not hang past the request
// deadline.
const DefaultTimeout = 15 * time.Second

// Client is the slice of the Stripe API the billing core consumes. Tests swap
// in a fake; production uses the stripe-go package bindings.
type Client interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	PauseSubscription(ctx context.Context, id string, resumesAt time.Time) (*stripe.Subscription, error)
	ResumeSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error)
}

type apiClient struct {
	timeout time.Duration
}

func NewClient() Client {
	if stripe.Key == "" {
		stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	}
	return &apiClient{timeout: DefaultTimeout}
}

func (c *apiClient) params(ctx context.Context) (stripe.Params, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return stripe.Params{Context: ctx}, cancel
}

func (c *apiClient) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	return paymentintent.Get(id, &stripe.PaymentIntentParams{Params: p})
}

func (c *apiClient) GetPrice(ctx context.Context, id string) (*stripe.Price, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	return price.Get(id, &stripe.PriceParams{Params: p})
}

func (c *apiClient) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	return subscription.Get(id, &stripe.SubscriptionParams{Params: p})
}

// PauseSubscription sets pause_collection with behavior "void": nothing is
// invoiced while paused and billing resumes at resumesAt.
func (c *apiClient) PauseSubscription(ctx context.Context, id string, resumesAt time.Time) (*stripe.Subscription, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	return subscription.Update(id, &stripe.SubscriptionParams{
		Params: p,
		PauseCollection: &stripe.SubscriptionPauseCollectionParams{
			Behavior:  stripe.String("void"),
			ResumesAt: stripe.Int64(resumesAt.Unix()),
		},
	})
}

func (c *apiClient) ResumeSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	// Clearing pause_collection needs an explicit empty value on the wire.
	params := &stripe.SubscriptionParams{Params: p}
	params.AddExtra("pause_collection", "")
	return subscription.Update(id, params)
}

func (c *apiClient) CancelAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	p, cancel := c.params(ctx)
	defer cancel()
	return subscription.Update(id, &stripe.SubscriptionParams{
		Params:            p,
		CancelAtPeriodEnd: stripe.Bool(true),
	})
}
