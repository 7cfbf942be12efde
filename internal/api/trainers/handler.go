package trainers

import (
	"context"
	"net/http"
	"strconv"

	"coachmarket/database"
	"coachmarket/internal/billing/revenue"
	"coachmarket/internal/domain/clients"
	"coachmarket/internal/infra/accesscache"

	"github.com/gin-gonic/gin"
)

// AccessCache is wired in at route registration. Nil-safe: without redis every
// check goes straight to the database.
var AccessCache *accesscache.Cache

// GET /trainer/payout-destination
func GetPayoutDestination(c *gin.Context) {
	trainerID := c.GetUint("user_id")
	if trainerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	dest, err := revenue.GetPayoutDestination(database.DB, trainerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve payout destination"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected_account_id": dest.ConnectedAccountID,
		"destination":          dest.Destination,
		"display_name":         dest.DisplayName,
	})
}

// GET /trainer/clients
func ListClients(c *gin.Context) {
	trainerID := c.GetUint("user_id")
	if trainerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var rows []clients.TrainerClient
	if err := database.DB.
		Preload("Client").
		Where("trainer_id = ? AND status = ?", trainerID, clients.StatusActive).
		Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load clients"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// POST /trainer/clients
func AddClient(c *gin.Context) {
	trainerID := c.GetUint("user_id")
	if trainerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		ClientID uint `json:"client_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid client_id"})
		return
	}

	row := clients.TrainerClient{
		TrainerID: trainerID,
		ClientID:  body.ClientID,
		Status:    clients.StatusActive,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Client already linked", "details": err.Error()})
		return
	}

	AccessCache.Invalidate(c.Request.Context(), trainerID, body.ClientID)

	c.JSON(http.StatusOK, row)
}

// DELETE /trainer/clients/:id
func RemoveClient(c *gin.Context) {
	trainerID := c.GetUint("user_id")
	if trainerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	clientID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}
	clientID := uint(clientID64)

	if err := database.DB.Model(&clients.TrainerClient{}).
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		Update("status", clients.StatusEnded).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove client"})
		return
	}

	AccessCache.Invalidate(c.Request.Context(), trainerID, clientID)

	c.JSON(http.StatusOK, gin.H{"message": "Client removed"})
}

// HasClientAccess answers "does this trainer coach this client" through the
// cache-aside layer, falling back to a direct lookup on miss.
func HasClientAccess(ctx context.Context, trainerID, clientID uint) bool {
	if allowed, ok := AccessCache.Get(ctx, trainerID, clientID); ok {
		return allowed
	}

	var count int64
	database.DB.Model(&clients.TrainerClient{}).
		Where("trainer_id = ? AND client_id = ? AND status = ?", trainerID, clientID, clients.StatusActive).
		Count(&count)
	allowed := count > 0

	AccessCache.Set(ctx, trainerID, clientID, allowed)
	return allowed
}

// GET /trainer/clients/:id — client detail guarded by the access check.
func GetClient(c *gin.Context) {
	trainerID := c.GetUint("user_id")
	if trainerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	clientID64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}
	clientID := uint(clientID64)

	if !HasClientAccess(c.Request.Context(), trainerID, clientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var row clients.TrainerClient
	if err := database.DB.
		Preload("Client").
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		First(&row).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	c.JSON(http.StatusOK, row)
}
