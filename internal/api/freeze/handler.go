package freeze

import (
	"net/http"

	billingfreeze "coachmarket/internal/billing/freeze"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *billingfreeze.Service
}

func NewHandler(svc *billingfreeze.Service) *Handler {
	return &Handler{svc: svc}
}

// GET /freeze/eligibility
func (h *Handler) GetEligibility(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	elig, err := h.svc.GetFreezeEligibility(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check freeze eligibility"})
		return
	}
	c.JSON(http.StatusOK, elig)
}

// POST /freeze
func (h *Handler) Pause(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		Days int `json:"days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid days"})
		return
	}

	res, err := h.svc.PauseSubscription(c.Request.Context(), userID, body.Days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Message})
		return
	}
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /freeze/resume
func (h *Handler) Resume(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	res, err := h.svc.ResumeSubscription(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resume subscription"})
		return
	}
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
