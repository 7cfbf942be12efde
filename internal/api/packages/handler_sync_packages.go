package packages

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"coachmarket/database"
	"coachmarket/internal/domain/packages"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
)

// SyncPackagesFromStripe pulls the active recurring and one-time prices and
// upserts the local catalog. Prices without a lookup key are skipped: the
// lookup key is what webhook handlers match subscriptions against.
func SyncPackagesFromStripe(c *gin.Context) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.AddExpand("data.product")

	it := price.List(params)

	created := 0
	updated := 0
	skipped := 0

	for it.Next() {
		p := it.Price()

		if !p.Active || p.Product == nil || !p.Product.Active {
			skipped++
			continue
		}

		if p.LookupKey == "" {
			skipped++
			continue
		}

		if string(p.Currency) != "eur" {
			skipped++
			continue
		}

		if p.Metadata != nil && p.Metadata["visible"] == "false" {
			skipped++
			continue
		}

		amount := float64(p.UnitAmount) / 100.0

		displayName := p.Product.Name
		if p.Metadata != nil {
			if v := p.Metadata["package"]; v != "" {
				displayName = v
			}
		}

		interval := packages.IntervalOneTime
		if p.Recurring != nil {
			interval = strings.ToLower(string(p.Recurring.Interval))
		}

		var trainerID *uint
		if p.Metadata != nil {
			if v := p.Metadata["trainer_id"]; v != "" {
				if id, err := strconv.ParseUint(v, 10, 64); err == nil {
					tid := uint(id)
					trainerID = &tid
				}
			}
		}

		var existing packages.PackageTemplate
		err := database.DB.Where("stripe_lookup_key = ?", p.LookupKey).First(&existing).Error
		if err == nil {
			existing.Name = displayName
			existing.StripePriceID = p.ID
			existing.PriceEUR = amount
			existing.Currency = string(p.Currency)
			existing.Interval = interval
			existing.TrainerID = trainerID
			if err := database.DB.Save(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update package", "details": err.Error()})
				return
			}
			updated++
			continue
		}

		row := packages.PackageTemplate{
			Name:            displayName,
			TrainerID:       trainerID,
			StripePriceID:   p.ID,
			StripeLookupKey: p.LookupKey,
			PriceEUR:        amount,
			Currency:        string(p.Currency),
			Interval:        interval,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create package", "details": err.Error()})
			return
		}
		created++
	}

	if err := it.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"updated": updated,
		"skipped": skipped,
	})
}
