package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coachmarket/internal/domain/billing"
	"coachmarket/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// handleCheckoutCompleted records one-time purchases for reporting. A
// subscription-mode checkout is left alone here: the entitlement row is
// created by customer.subscription.created, never twice.
func (h *Handler) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.Customer == nil || session.Customer.ID == "" {
		h.log.Debug().Str("session_id", session.ID).Msg("checkout session without customer, ignoring")
		return nil
	}

	user, err := h.userByCustomerID(ctx, session.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Warn().Str("customer_id", session.Customer.ID).
				Msg("checkout completed for unknown customer, ignoring")
			return nil
		}
		return err
	}

	if session.Mode != stripe.CheckoutSessionModePayment {
		return nil
	}
	if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
		return nil
	}

	pi, err := h.stripe.GetPaymentIntent(ctx, session.PaymentIntent.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch payment intent: %w", err)
	}

	var pkgID *uint
	if id := h.packageIDFromMetadata(ctx, session.Metadata); id != 0 {
		pkgID = &id
	}

	sessionID := session.ID
	payment := billing.Payment{
		UserID:          user.ID,
		PackageID:       pkgID,
		StripeSessionID: &sessionID,
		AmountEUR:       float64(pi.Amount) / 100.0,
		Currency:        strings.ToLower(string(pi.Currency)),
		Status:          "paid",
	}
	// Re-delivery keys on the session id.
	return h.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&payment).Error
}

func (h *Handler) userByCustomerID(ctx context.Context, customerID string) (users.User, error) {
	var user users.User
	err := h.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		First(&user).Error
	return user, err
}
