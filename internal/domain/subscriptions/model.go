package subscriptions

import (
	"time"

	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/users"
)

// Subscription mirrors one user-package enrollment. Stripe remains the source
// of truth for live billing state (including pause); this row tracks the local
// entitlement plus the dunning and freeze-quota ledgers Stripe has no concept of.
type Subscription struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	User      users.User
	PackageID uint
	Package   *packages.PackageTemplate `gorm:"foreignKey:PackageID"`
	TrainerID *uint

	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_subscriptions_stripe_subscription_id"`
	StripeLookupKey      *string `gorm:"column:stripe_lookup_key"`

	Status    Status `gorm:"type:varchar(20);not null;default:'active';index"`
	StartDate time.Time
	EndDate   time.Time

	IsTrialActive bool
	TrialEnd      *time.Time

	// Dunning: grace_period_end is set iff is_in_grace_period is true. The
	// clock is anchored once at the first failure; provider retries within
	// the window do not extend it.
	IsInGracePeriod      bool
	GracePeriodEnd       *time.Time
	FailedPaymentRetries int
	LastPaymentAttempt   *time.Time

	// Freeze ledger: freeze_days_used is meaningful only for freeze_usage_year.
	// A stale year counts as zero and is reset lazily on the next eligibility
	// check, not by a background job.
	FreezeDaysUsed  int
	FreezeUsageYear *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Subscription) InGracePeriod(now time.Time) bool {
	return s.IsInGracePeriod && s.GracePeriodEnd != nil && now.Before(*s.GracePeriodEnd)
}

// Entitled reports whether the subscription still grants access: a live
// subscription, a cancel-at-period-end one that has not elapsed, or a
// payment-pending one inside its grace window.
func (s *Subscription) Entitled(now time.Time) bool {
	switch s.Status {
	case StatusActive:
		return true
	case StatusCancelledActive:
		return now.Before(s.EndDate)
	case StatusPending:
		return s.InGracePeriod(now)
	}
	return false
}
