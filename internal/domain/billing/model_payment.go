package billing

import (
	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/users"
	"time"
)

type Payment struct {
	ID                   uint `gorm:"primaryKey"`
	UserID               uint
	User                 users.User
	PackageID            *uint
	Package              *packages.PackageTemplate `gorm:"foreignKey:PackageID"`
	StripeSessionID      *string                   `gorm:"uniqueIndex:idx_payments_stripe_session_id"`
	StripeInvoiceID      *string                   `gorm:"uniqueIndex:idx_payments_stripe_invoice_id"`
	StripeSubscriptionID *string
	AmountEUR            float64
	Currency             string `gorm:"type:varchar(10);default:'eur'"`
	Status               string
	ReceiptURL           *string
	CreatedAt            time.Time
}
