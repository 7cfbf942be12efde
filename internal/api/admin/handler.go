package admin

import (
	"net/http"
	"time"

	"coachmarket/database"
	"coachmarket/internal/domain/billing"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Lastname         string  `json:"lastname"`
	Email            string  `json:"email"`
	Role             string  `json:"role"`
	IsVerified       bool    `json:"is_verified"`
	StripeCustomerID *string `json:"stripe_customer_id,omitempty"`
}

type AdminPayment struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	PackageName *string `json:"package_name,omitempty"`
	AmountEUR   float64 `json:"amount_eur"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

type AdminSubscription struct {
	ID                   uint       `json:"id"`
	Email                string     `json:"email"`
	PackageName          *string    `json:"package_name,omitempty"`
	Status               string     `json:"status"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	IsInGracePeriod      bool       `json:"is_in_grace_period"`
	GracePeriodEnd       *time.Time `json:"grace_period_end,omitempty"`
	FailedRetries        int        `json:"failed_retries"`
	FreezeDaysUsed       int        `json:"freeze_days_used"`
	EndDate              time.Time  `json:"end_date"`
}

func AdminDashboard(c *gin.Context) {
	var totalUsers int64
	var totalRevenue float64
	var recentRevenue float64
	var inDunning int64

	database.DB.Model(&users.User{}).Count(&totalUsers)
	database.DB.Model(&billing.Payment{}).Where("status = ?", "paid").
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&totalRevenue)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", "paid", thirtyDaysAgo).
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&recentRevenue)

	database.DB.Model(&subscriptions.Subscription{}).
		Where("is_in_grace_period = ?", true).Count(&inDunning)

	c.JSON(http.StatusOK, gin.H{
		"total_users":    totalUsers,
		"total_revenue":  totalRevenue,
		"recent_revenue": recentRevenue,
		"in_dunning":     inDunning,
	})
}

func ListAllUsers(c *gin.Context) {
	var rows []users.User
	if err := database.DB.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	var result []AdminUser
	for _, u := range rows {
		result = append(result, AdminUser{
			ID:               u.ID,
			Name:             u.Name,
			Lastname:         u.Lastname,
			Email:            u.Email,
			Role:             u.Role,
			IsVerified:       u.IsVerified,
			StripeCustomerID: u.StripeCustomerID,
		})
	}

	c.JSON(http.StatusOK, result)
}

func ListAllPayments(c *gin.Context) {
	var payments []billing.Payment
	if err := database.DB.Preload("User").Preload("Package").
		Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	var result []AdminPayment
	for _, p := range payments {
		var pkgName *string
		if p.Package != nil {
			pkgName = &p.Package.Name
		}
		result = append(result, AdminPayment{
			ID:          p.ID,
			Email:       p.User.Email,
			PackageName: pkgName,
			AmountEUR:   p.AmountEUR,
			Status:      p.Status,
			CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, result)
}

// ListAllSubscriptions surfaces the dunning and freeze ledgers for support.
func ListAllSubscriptions(c *gin.Context) {
	var subs []subscriptions.Subscription
	if err := database.DB.Preload("User").Preload("Package").
		Order("created_at DESC").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}

	var result []AdminSubscription
	for _, s := range subs {
		var pkgName *string
		if s.Package != nil {
			pkgName = &s.Package.Name
		}
		result = append(result, AdminSubscription{
			ID:                   s.ID,
			Email:                s.User.Email,
			PackageName:          pkgName,
			Status:               string(s.Status),
			StripeSubscriptionID: s.StripeSubscriptionID,
			IsInGracePeriod:      s.IsInGracePeriod,
			GracePeriodEnd:       s.GracePeriodEnd,
			FailedRetries:        s.FailedPaymentRetries,
			FreezeDaysUsed:       s.FreezeDaysUsed,
			EndDate:              s.EndDate,
		})
	}

	c.JSON(http.StatusOK, result)
}
