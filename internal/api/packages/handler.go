package packages

import (
	"net/http"

	"coachmarket/database"
	"coachmarket/internal/domain/packages"

	"github.com/gin-gonic/gin"
)

type PackageResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	TrainerID       *uint   `json:"trainer_id,omitempty"`
	TrainerName     string  `json:"trainer_name,omitempty"`
	StripeLookupKey string  `json:"stripe_lookup_key"`
	PriceEUR        float64 `json:"price_eur"`
	Currency        string  `json:"currency"`
	Interval        string  `json:"interval"`
}

func ListPackages(c *gin.Context) {
	var rows []packages.PackageTemplate
	if err := database.DB.Preload("Trainer").Order("price_eur ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load packages"})
		return
	}

	result := []PackageResponse{}
	for _, p := range rows {
		resp := PackageResponse{
			ID:              p.ID,
			Name:            p.Name,
			TrainerID:       p.TrainerID,
			StripeLookupKey: p.StripeLookupKey,
			PriceEUR:        p.PriceEUR,
			Currency:        p.Currency,
			Interval:        packages.PackageInterval(&p),
		}
		if p.Trainer != nil {
			resp.TrainerName = p.Trainer.FullName()
		}
		result = append(result, resp)
	}

	c.JSON(http.StatusOK, result)
}
