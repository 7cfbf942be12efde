package stripewebhooks

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"coachmarket/internal/billing/dunning"
	"coachmarket/internal/domain/billing"
	"coachmarket/internal/infra/stripeapi"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	db      *gorm.DB
	stripe  stripeapi.Client
	dunning *dunning.Manager
	log     zerolog.Logger

	Now func() time.Time
}

func NewHandler(db *gorm.DB, sc stripeapi.Client, dm *dunning.Manager, log zerolog.Logger) *Handler {
	return &Handler{db: db, stripe: sc, dunning: dm, log: log, Now: time.Now}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	// Stripe key is required for any follow-up API calls (paymentintent.Get,
	// price.Get, etc.)
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_SECRET_KEY not configured"})
		return
	}

	endpointSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	seen, err := h.markProcessed(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	if seen {
		// At-least-once delivery: replays are acked without side effects.
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	typed, err := parseEvent(event)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if typed == nil {
		// Acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.dispatch(c.Request.Context(), typed); err != nil {
		// Return 500 so Stripe redelivers; missing-linkage and not-found were
		// already swallowed inside the handlers. The dedupe row must go with
		// it, otherwise the redelivery we just asked for is acked as a
		// duplicate and the event's side effects are lost for good.
		h.forgetEvent(c.Request.Context(), event.ID)
		h.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("webhook handler failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// dispatch routes a typed event to exactly one handler.
func (h *Handler) dispatch(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case CheckoutCompleted:
		return h.handleCheckoutCompleted(ctx, ev.Session)
	case SubscriptionCreated:
		return h.handleSubscriptionCreated(ctx, ev.Subscription)
	case PaymentSucceeded:
		return h.handlePaymentSucceeded(ctx, ev.Invoice)
	case PaymentFailed:
		return h.dunning.HandlePaymentFailed(ctx, ev.Invoice)
	}
	return nil
}

// markProcessed inserts the event id into the dedupe table. A conflicting
// insert means the event was already handled.
func (h *Handler) markProcessed(ctx context.Context, event stripe.Event) (bool, error) {
	res := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&billing.WebhookEvent{
			StripeEventID: event.ID,
			Type:          string(event.Type),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 0, nil
}

// forgetEvent releases a dedupe row after a failed dispatch so the event stays
// replayable.
func (h *Handler) forgetEvent(ctx context.Context, eventID string) {
	if err := h.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		Delete(&billing.WebhookEvent{}).Error; err != nil {
		h.log.Error().Err(err).Str("stripe_event_id", eventID).
			Msg("failed to release webhook event for redelivery")
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
