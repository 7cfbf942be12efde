package users

import (
	"time"

	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/subscriptions"
)

func BuildPackageDTO(p *packages.PackageTemplate) *PackageDTO {
	if p == nil {
		return nil
	}
	return &PackageDTO{
		ID:              p.ID,
		Name:            p.Name,
		Interval:        packages.PackageInterval(p),
		PriceEUR:        p.PriceEUR,
		StripeLookupKey: p.StripeLookupKey,
	}
}

func BuildSubscriptionDTO(s *subscriptions.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	start := s.StartDate
	end := s.EndDate
	return &SubscriptionDTO{
		Status:               string(s.Status),
		StartsAt:             &start,
		EndsAt:               &end,
		StripeSubscriptionID: s.StripeSubscriptionID,
	}
}

func BuildTrialDTO(now time.Time, s *subscriptions.Subscription) *TrialDTO {
	if s == nil || !s.IsTrialActive || s.TrialEnd == nil {
		return nil
	}

	d := 0
	if now.Before(*s.TrialEnd) {
		d = int(s.TrialEnd.Sub(now).Hours() / 24)
		if d < 0 {
			d = 0
		}
	}

	return &TrialDTO{
		EndsAt:   s.TrialEnd,
		DaysLeft: &d,
	}
}

func BuildGraceDTO(s *subscriptions.Subscription) *GraceDTO {
	if s == nil || !s.IsInGracePeriod {
		return nil
	}
	return &GraceDTO{
		Active:        true,
		EndsAt:        s.GracePeriodEnd,
		FailedRetries: s.FailedPaymentRetries,
	}
}

func BuildFreezeDTO(s *subscriptions.Subscription) *FreezeDTO {
	if s == nil || !packages.IsYearly(s.Package) {
		return nil
	}
	return &FreezeDTO{
		DaysUsed:  s.FreezeDaysUsed,
		UsageYear: s.FreezeUsageYear,
	}
}
