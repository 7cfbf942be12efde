package revenue

import (
	"context"
	"fmt"
	"math"

	"coachmarket/internal/domain/teams"
	"coachmarket/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

// DefaultFeePercent is the platform cut of every marketplace transaction.
const DefaultFeePercent = 10

const (
	DestinationTeam       = "team"
	DestinationIndividual = "individual"
	DestinationNone       = "none"
)

type PayoutDestination struct {
	ConnectedAccountID string
	Destination        string // "team" | "individual" | "none"
	DisplayName        string // "team:<name>" | "individual" | "none"
}

// LineItem is one charged position. Either UnitAmount is inline (cents), or
// PriceID references a Stripe price whose unit amount has to be fetched.
type LineItem struct {
	PriceID    string
	UnitAmount int64
	Quantity   int64
}

type RevenueShare struct {
	TotalAmount          int64
	ApplicationFeeAmount int64
	TrainerPayoutAmount  int64
}

// PriceLookup resolves a Stripe price id to its unit amount.
type PriceLookup interface {
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
}

// GetPayoutDestination picks where a trainer's share is routed. The trainer's
// first team with a connected account wins over their individual account.
func GetPayoutDestination(db *gorm.DB, trainerID uint) (PayoutDestination, error) {
	var membership teams.TeamMember
	err := db.
		Joins("Team").
		Where("team_members.user_id = ?", trainerID).
		Where("\"Team\".stripe_connect_account_id IS NOT NULL AND \"Team\".stripe_connect_account_id <> ''").
		Order("team_members.created_at ASC").
		First(&membership).Error
	if err == nil && membership.Team.StripeConnectAccountID != nil {
		return PayoutDestination{
			ConnectedAccountID: *membership.Team.StripeConnectAccountID,
			Destination:        DestinationTeam,
			DisplayName:        "team:" + membership.Team.Name,
		}, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return PayoutDestination{}, err
	}

	var trainer users.User
	if err := db.Where("id = ?", trainerID).First(&trainer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return PayoutDestination{Destination: DestinationNone, DisplayName: DestinationNone}, nil
		}
		return PayoutDestination{}, err
	}
	if trainer.StripeConnectAccountID != nil && *trainer.StripeConnectAccountID != "" {
		return PayoutDestination{
			ConnectedAccountID: *trainer.StripeConnectAccountID,
			Destination:        DestinationIndividual,
			DisplayName:        DestinationIndividual,
		}, nil
	}

	return PayoutDestination{Destination: DestinationNone, DisplayName: DestinationNone}, nil
}

// CalculateRevenueSharing sums the line items and splits the total. The payout
// is derived by subtraction so fee + payout always equals the total exactly,
// whatever the rounding of the fee did.
func CalculateRevenueSharing(ctx context.Context, prices PriceLookup, items []LineItem, feePercent int) (RevenueShare, error) {
	var total int64
	for _, item := range items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		unit := item.UnitAmount
		if item.PriceID != "" {
			p, err := prices.GetPrice(ctx, item.PriceID)
			if err != nil {
				return RevenueShare{}, fmt.Errorf("failed to resolve price %s: %w", item.PriceID, err)
			}
			unit = p.UnitAmount
		}
		total += unit * qty
	}

	fee := int64(math.Round(float64(total) * float64(feePercent) / 100.0))

	return RevenueShare{
		TotalAmount:          total,
		ApplicationFeeAmount: fee,
		TrainerPayoutAmount:  total - fee,
	}, nil
}

// CreatePaymentIntentData builds the checkout payment-intent block routing the
// trainer share to the connected account. Nil when there is no destination
// account or no fee to take: the platform keeps the full amount directly and
// no split is needed.
func CreatePaymentIntentData(dest PayoutDestination, share RevenueShare, trainerID uint) *stripe.CheckoutSessionPaymentIntentDataParams {
	if dest.ConnectedAccountID == "" || share.ApplicationFeeAmount == 0 {
		return nil
	}

	return &stripe.CheckoutSessionPaymentIntentDataParams{
		ApplicationFeeAmount: stripe.Int64(share.ApplicationFeeAmount),
		OnBehalfOf:           stripe.String(dest.ConnectedAccountID),
		TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(dest.ConnectedAccountID),
		},
		Metadata: map[string]string{
			"trainer_id":         fmt.Sprint(trainerID),
			"application_fee":    fmt.Sprint(share.ApplicationFeeAmount),
			"trainer_payout":     fmt.Sprint(share.TrainerPayoutAmount),
			"revenue_share":      "true",
			"payout_destination": dest.DisplayName,
		},
	}
}
