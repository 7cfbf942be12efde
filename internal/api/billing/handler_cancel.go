package billing

import (
	"net/http"
	"os"

	"coachmarket/database"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/infra/stripeapi"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// CancelSubscription schedules the cancellation at period end: Stripe keeps
// billing paused-out and the local row moves to cancelled_active, retaining
// entitlement until end_date.
func CancelSubscription(c *gin.Context) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var sub subscriptions.Subscription
	err := database.DB.
		Where("user_id = ? AND status = ?", userID, subscriptions.StatusActive).
		Where("stripe_subscription_id IS NOT NULL AND stripe_subscription_id <> ''").
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription to cancel"})
		return
	}

	if err := sub.Transition(subscriptions.StatusCancelledActive); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Subscription cannot be cancelled in its current state"})
		return
	}

	// Stripe first; the local row only moves once the processor accepted.
	sc := stripeapi.NewClient()
	if _, err := sc.CancelAtPeriodEnd(c.Request.Context(), *sub.StripeSubscriptionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to cancel subscription with Stripe",
			"details": err.Error(),
		})
		return
	}

	if err := database.DB.Model(&subscriptions.Subscription{}).
		Where("id = ?", sub.ID).
		Update("status", subscriptions.StatusCancelledActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Subscription will end at the current period end",
		"ends_at":  sub.EndDate,
		"status":   subscriptions.StatusCancelledActive,
		"sub_id":   sub.ID,
		"stripeid": sub.StripeSubscriptionID,
	})
}
