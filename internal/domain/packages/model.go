package packages

import (
	"coachmarket/internal/domain/users"
	"time"
)

// PackageTemplate is a sellable coaching offering. It is matched to Stripe
// prices by lookup key, which stays stable even when the underlying price id
// changes.
type PackageTemplate struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	TrainerID *uint
	Trainer   *users.User `gorm:"foreignKey:TrainerID"`

	StripePriceID   string `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_package_templates_stripe_price_id"`
	StripeLookupKey string `gorm:"column:stripe_lookup_key;not null;uniqueIndex:idx_package_templates_stripe_lookup_key"`

	PriceEUR float64
	Currency string `gorm:"type:varchar(10);default:'eur'"`
	Interval string `gorm:"type:varchar(20)"` // "month" | "year" | "one_time"

	CreatedAt time.Time
	UpdatedAt time.Time
}
