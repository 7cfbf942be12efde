package users

import "time"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Lastname   string  `json:"lastname"`
	Tel        *string `json:"tel"`
	Role       string  `json:"role"`
	IsVerified bool    `json:"is_verified"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Package      *PackageDTO      `json:"package"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Trial        *TrialDTO        `json:"trial"`
	Grace        *GraceDTO        `json:"grace"`
	Freeze       *FreezeDTO       `json:"freeze"`
}

type PackageDTO struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Interval        string  `json:"interval"`
	PriceEUR        float64 `json:"price_eur"`
	StripeLookupKey string  `json:"stripe_lookup_key"`
}

type SubscriptionDTO struct {
	Status               string     `json:"status"`
	StartsAt             *time.Time `json:"starts_at"`
	EndsAt               *time.Time `json:"ends_at"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
}

type TrialDTO struct {
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft *int       `json:"days_left"`
}

type GraceDTO struct {
	Active        bool       `json:"active"`
	EndsAt        *time.Time `json:"ends_at"`
	FailedRetries int        `json:"failed_retries"`
}

type FreezeDTO struct {
	DaysUsed  int  `json:"days_used"`
	UsageYear *int `json:"usage_year"`
}
