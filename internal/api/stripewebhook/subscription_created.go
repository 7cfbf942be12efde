package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/subscriptions"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// handleSubscriptionCreated creates the local entitlement row. This is the
// only place a Subscription is ever created.
func (h *Handler) handleSubscriptionCreated(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return fmt.Errorf("subscription missing id/items/price")
	}

	item := sub.Items.Data[0]
	lookupKey := item.Price.LookupKey
	if lookupKey == "" {
		// Thin webhook payloads omit the lookup key; resolve via the price.
		p, err := h.stripe.GetPrice(ctx, item.Price.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve price %s: %w", item.Price.ID, err)
		}
		lookupKey = p.LookupKey
	}

	var pkg packages.PackageTemplate
	if err := h.db.WithContext(ctx).Where("stripe_lookup_key = ?", lookupKey).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Warn().Str("lookup_key", lookupKey).
				Msg("no package template for lookup key, ignoring subscription")
			return nil
		}
		return err
	}

	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil
	}
	user, err := h.userByCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Warn().Str("customer_id", sub.Customer.ID).
				Msg("subscription created for unknown customer, ignoring")
			return nil
		}
		return err
	}

	startDate := h.Now()
	if sub.StartDate > 0 {
		startDate = time.Unix(sub.StartDate, 0)
	}
	endDate := startDate.AddDate(0, 1, 0)
	if sub.CurrentPeriodEnd > 0 {
		endDate = time.Unix(sub.CurrentPeriodEnd, 0)
	}

	var trialEnd *time.Time
	trialActive := sub.TrialEnd > 0
	if trialActive {
		te := time.Unix(sub.TrialEnd, 0)
		trialEnd = &te
	}

	subscriptionID := sub.ID
	row := subscriptions.Subscription{
		UserID:               user.ID,
		PackageID:            pkg.ID,
		TrainerID:            pkg.TrainerID,
		StripeSubscriptionID: &subscriptionID,
		StripeLookupKey:      &lookupKey,
		Status:               subscriptions.StatusActive,
		StartDate:            startDate,
		EndDate:              endDate,
		IsTrialActive:        trialActive,
		TrialEnd:             trialEnd,
	}

	// Idempotent on stripe_subscription_id: a redelivered event conflicts and
	// creates nothing.
	if err := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoNothing: true,
		}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	h.log.Info().
		Uint("user_id", user.ID).
		Str("stripe_subscription_id", sub.ID).
		Str("lookup_key", lookupKey).
		Bool("trial", trialActive).
		Msg("subscription created")
	return nil
}

// packageIDFromMetadata maps checkout metadata back to a catalog row.
func (h *Handler) packageIDFromMetadata(ctx context.Context, md map[string]string) uint {
	if md == nil {
		return 0
	}
	s := md["package_id"]
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	var pkg packages.PackageTemplate
	if err := h.db.WithContext(ctx).Where("id = ?", uint(id)).First(&pkg).Error; err != nil {
		return 0
	}
	return pkg.ID
}
