package users

import (
	"net/http"
	"time"

	"coachmarket/database"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/domain/users"

	"github.com/gin-gonic/gin"
)

func GetCurrentUser(c *gin.Context) {
	email := c.GetString("email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.
		Where("email = ?", email).
		First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Latest non-terminal enrollment, if any.
	var sub *subscriptions.Subscription
	var row subscriptions.Subscription
	err := database.DB.
		Preload("Package").
		Where("user_id = ?", user.ID).
		Where("status NOT IN ?", []subscriptions.Status{
			subscriptions.StatusCancelled,
			subscriptions.StatusExpired,
		}).
		Order("created_at DESC").
		First(&row).Error
	if err == nil {
		sub = &row
	}

	now := time.Now()

	var pkgDTO *PackageDTO
	if sub != nil {
		pkgDTO = BuildPackageDTO(sub.Package)
	}

	resp := MeResponse{
		User: UserDTO{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Lastname:   user.Lastname,
			Tel:        stringPtrIfNotEmpty(user.Tel),
			Role:       user.Role,
			IsVerified: user.IsVerified,
		},
		Billing: BillingDTO{
			Package:      pkgDTO,
			Subscription: BuildSubscriptionDTO(sub),
			Trial:        BuildTrialDTO(now, sub),
			Grace:        BuildGraceDTO(sub),
			Freeze:       BuildFreezeDTO(sub),
		},
	}

	c.JSON(http.StatusOK, resp)
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	type Token struct {
		UserID int
	}
	var t Token
	if err := database.DB.Table("verification_tokens").Where("token = ?", token).First(&t).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := database.DB.Model(&users.User{}).Where("id = ?", t.UserID).Update("is_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
		return
	}

	_ = database.DB.Exec("DELETE FROM verification_tokens WHERE token = ?", token)

	redirectURL := "http://localhost:5173/signin"
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}
