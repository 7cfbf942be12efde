package freeze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/infra/stripeapi"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Config struct {
	MinDaysPerPause int
	MaxDaysPerPause int
	MaxDaysPerYear  int
	FirstMonthDays  int
}

// Service reconciles the local yearly freeze ledger with Stripe's pause
// primitive. Stripe is the sole authority for "is paused right now"; the
// local row only tracks how many days of the annual allowance are spent,
// because Stripe has no concept of an allowance.
type Service struct {
	db     *gorm.DB
	stripe stripeapi.Client
	cfg    Config
	log    zerolog.Logger

	Now func() time.Time
}

func NewService(db *gorm.DB, sc stripeapi.Client, cfg Config, log zerolog.Logger) *Service {
	return &Service{db: db, stripe: sc, cfg: cfg, log: log, Now: time.Now}
}

type Eligibility struct {
	Eligible   bool       `json:"eligible"`
	Reason     string     `json:"reason,omitempty"`
	MinDays    int        `json:"min_days"`
	MaxDays    int        `json:"max_days"`
	EligibleAt *time.Time `json:"eligible_at,omitempty"`
	ResumesAt  *time.Time `json:"resumes_at,omitempty"`
}

type Result struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	ResumesAt *time.Time `json:"resumes_at,omitempty"`
}

var errNoEligibleSubscription = errors.New("no active yearly subscription")

// eligibleSubscription finds the user's active yearly-tier subscription. Only
// yearly packages carry a freeze allowance.
func (s *Service) eligibleSubscription(ctx context.Context, userID uint) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	err := s.db.WithContext(ctx).
		Preload("Package").
		Where("user_id = ? AND status = ?", userID, subscriptions.StatusActive).
		Where("stripe_subscription_id IS NOT NULL AND stripe_subscription_id <> ''").
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNoEligibleSubscription
	}
	if err != nil {
		return nil, err
	}
	if !packages.IsYearly(sub.Package) {
		return nil, errNoEligibleSubscription
	}
	return &sub, nil
}

// resetLedgerIfStale lazily zeroes the ledger when the stored year is not the
// current calendar year. Persisted before any remaining-days math.
func (s *Service) resetLedgerIfStale(ctx context.Context, sub *subscriptions.Subscription, year int) error {
	if sub.FreezeUsageYear != nil && *sub.FreezeUsageYear == year {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&subscriptions.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"freeze_days_used":  0,
			"freeze_usage_year": year,
		}).Error; err != nil {
		return err
	}
	sub.FreezeDaysUsed = 0
	sub.FreezeUsageYear = &year
	return nil
}

func (s *Service) GetFreezeEligibility(ctx context.Context, userID uint) (Eligibility, error) {
	sub, err := s.eligibleSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, errNoEligibleSubscription) {
			return Eligibility{Reason: "freezing requires an active yearly subscription"}, nil
		}
		return Eligibility{}, err
	}

	now := s.Now()
	if err := s.resetLedgerIfStale(ctx, sub, now.Year()); err != nil {
		return Eligibility{}, err
	}

	// Live pause state comes from Stripe, never from a local mirror.
	live, err := s.stripe.GetSubscription(ctx, *sub.StripeSubscriptionID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("failed to fetch subscription state: %w", err)
	}
	if live.PauseCollection != nil {
		resumesAt := time.Unix(live.PauseCollection.ResumesAt, 0)
		return Eligibility{
			Reason:    "subscription is already paused",
			ResumesAt: &resumesAt,
		}, nil
	}

	// Freezing opens FirstMonthDays after the trial ends (or after the start
	// date when there was no trial).
	anchor := sub.StartDate
	if sub.TrialEnd != nil {
		anchor = *sub.TrialEnd
	}
	eligibleAt := anchor.AddDate(0, 0, s.cfg.FirstMonthDays)
	if sub.IsTrialActive || now.Before(eligibleAt) {
		return Eligibility{
			Reason:     "freezing is not available during the first month",
			EligibleAt: &eligibleAt,
		}, nil
	}

	remaining := s.cfg.MaxDaysPerYear - sub.FreezeDaysUsed
	if remaining <= 0 {
		return Eligibility{Reason: "yearly freeze allowance used up", MaxDays: 0}, nil
	}
	if remaining < s.cfg.MinDaysPerPause {
		return Eligibility{
			Reason:  fmt.Sprintf("only %d freeze day(s) left this year, a pause needs at least %d", remaining, s.cfg.MinDaysPerPause),
			MaxDays: 0,
		}, nil
	}

	maxDays := s.cfg.MaxDaysPerPause
	if remaining < maxDays {
		maxDays = remaining
	}
	return Eligibility{
		Eligible: true,
		MinDays:  s.cfg.MinDaysPerPause,
		MaxDays:  maxDays,
	}, nil
}

// PauseSubscription validates, pauses on Stripe first, and debits the ledger
// only once Stripe confirmed. A failed Stripe call leaves the ledger
// untouched, so debits never outrun an actually-applied pause.
func (s *Service) PauseSubscription(ctx context.Context, userID uint, days int) (Result, error) {
	elig, err := s.GetFreezeEligibility(ctx, userID)
	if err != nil {
		return Result{Message: "could not check freeze eligibility"}, err
	}
	if !elig.Eligible {
		return Result{Message: elig.Reason}, nil
	}
	if days < s.cfg.MinDaysPerPause || days > elig.MaxDays {
		return Result{
			Message: fmt.Sprintf("pause length must be between %d and %d days", s.cfg.MinDaysPerPause, elig.MaxDays),
		}, nil
	}

	sub, err := s.eligibleSubscription(ctx, userID)
	if err != nil {
		return Result{Message: "no active yearly subscription"}, nil
	}

	now := s.Now()
	resumesAt := now.AddDate(0, 0, days)

	if _, err := s.stripe.PauseSubscription(ctx, *sub.StripeSubscriptionID, resumesAt); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("stripe pause failed")
		return Result{Message: "could not pause the subscription, please try again"}, nil
	}

	year := now.Year()
	if err := s.db.WithContext(ctx).Model(&subscriptions.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"freeze_days_used":  sub.FreezeDaysUsed + days,
			"freeze_usage_year": year,
		}).Error; err != nil {
		// The pause is live on Stripe; losing the debit would over-grant the
		// allowance, so surface the error.
		return Result{Message: "pause applied but ledger update failed"}, err
	}

	s.log.Info().Uint("user_id", userID).Int("days", days).
		Time("resumes_at", resumesAt).Msg("subscription paused")

	return Result{
		Success:   true,
		Message:   fmt.Sprintf("subscription paused for %d days", days),
		ResumesAt: &resumesAt,
	}, nil
}

// ResumeSubscription clears the pause on Stripe. Unused days are not refunded
// to the ledger.
func (s *Service) ResumeSubscription(ctx context.Context, userID uint) (Result, error) {
	sub, err := s.eligibleSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, errNoEligibleSubscription) {
			return Result{Message: "no active yearly subscription"}, nil
		}
		return Result{}, err
	}

	live, err := s.stripe.GetSubscription(ctx, *sub.StripeSubscriptionID)
	if err != nil {
		return Result{Message: "could not fetch subscription state"}, nil
	}
	if live.PauseCollection == nil {
		return Result{Message: "subscription is not paused"}, nil
	}

	if _, err := s.stripe.ResumeSubscription(ctx, *sub.StripeSubscriptionID); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("stripe resume failed")
		return Result{Message: "could not resume the subscription, please try again"}, nil
	}

	s.log.Info().Uint("user_id", userID).Msg("subscription resumed early")
	return Result{Success: true, Message: "subscription resumed"}, nil
}
