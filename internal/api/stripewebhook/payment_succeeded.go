package stripewebhooks

import (
	"context"
	"errors"
	"strings"

	"coachmarket/internal/domain/billing"
	"coachmarket/internal/domain/subscriptions"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// handlePaymentSucceeded reactivates the subscription and clears dunning
// state. This is the only path that resets the retry counter and the grace
// window.
func (h *Handler) handlePaymentSucceeded(ctx context.Context, inv *stripe.Invoice) error {
	if inv == nil || inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}
	subID := inv.Subscription.ID

	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subscriptions.Subscription
		err := subscriptions.LockForUpdate(tx).
			Where("stripe_subscription_id = ?", subID).
			First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Debug().Str("stripe_subscription_id", subID).
				Msg("payment succeeded for untracked subscription, ignoring")
			return nil
		}
		if err != nil {
			return err
		}

		// Terminal rows stay terminal: a late or replayed success must not
		// resurrect an expired or cancelled subscription.
		if subscriptions.CanTransition(sub.Status, subscriptions.StatusActive) {
			if err := tx.Model(&subscriptions.Subscription{}).
				Where("id = ?", sub.ID).
				Updates(map[string]interface{}{
					"status":                 subscriptions.StatusActive,
					"is_in_grace_period":     false,
					"grace_period_end":       nil,
					"failed_payment_retries": 0,
					"last_payment_attempt":   h.Now(),
				}).Error; err != nil {
				return err
			}
		} else {
			h.log.Warn().
				Str("stripe_subscription_id", subID).
				Str("status", string(sub.Status)).
				Msg("payment succeeded for terminal subscription, status left unchanged")
		}

		if inv.ID != "" {
			invoiceID := inv.ID
			payment := billing.Payment{
				UserID:               sub.UserID,
				PackageID:            &sub.PackageID,
				StripeInvoiceID:      &invoiceID,
				StripeSubscriptionID: &subID,
				AmountEUR:            float64(inv.AmountPaid) / 100.0,
				Currency:             strings.ToLower(string(inv.Currency)),
				Status:               "paid",
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&payment).Error; err != nil {
				return err
			}
		}

		h.log.Info().
			Str("stripe_subscription_id", subID).
			Int64("amount_paid", inv.AmountPaid).
			Msg("payment succeeded, dunning state cleared")
		return nil
	})
}
