package billing

import "time"

// WebhookEvent records every Stripe event id we have processed. Stripe
// delivers at least once; an insert that conflicts on stripe_event_id means a
// replay and the webhook is acked without side effects.
type WebhookEvent struct {
	ID            uint   `gorm:"primaryKey"`
	StripeEventID string `gorm:"not null;uniqueIndex:idx_webhook_events_stripe_event_id"`
	Type          string
	CreatedAt     time.Time
}
