package middleware

import (
	"net/http"
	"time"

	"coachmarket/database"
	"coachmarket/internal/domain/subscriptions"

	"github.com/gin-gonic/gin"
)

// RequireActiveSubscription gates routes behind a live entitlement. A
// subscription inside its grace period still counts: dunning retains access
// until the window closes.
func RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var sub subscriptions.Subscription
		err := database.DB.
			Where("user_id = ?", userID).
			Where("status IN ?", []subscriptions.Status{
				subscriptions.StatusActive,
				subscriptions.StatusCancelledActive,
				subscriptions.StatusPending,
			}).
			Order("created_at DESC").
			First(&sub).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Subscription not found or expired",
			})
			return
		}

		if !sub.Entitled(time.Now()) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your subscription has expired",
			})
			return
		}

		c.Next()
	}
}
