package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"machinery-marketplace/internal/auth"
	"machinery-marketplace/internal/database"
	"machinery-marketplace/internal/lifecycle"
)

// ReviewHandler serves the reviewer API: the queue of pending listings
// and the approve/reject decisions.
type ReviewHandler struct {
	service  *lifecycle.Service
	listings *database.ListingStore
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *lifecycle.Service, listings *database.ListingStore) *ReviewHandler {
	return &ReviewHandler{service: service, listings: listings}
}

// Pending handles GET /api/review/pending (oldest submission first)
func (h *ReviewHandler) Pending(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	listings, err := h.listings.ListPendingReview(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load review queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// Approve handles POST /api/review/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	listing, err := h.service.Approve(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Reject handles POST /api/review/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Reject(auth.CurrentAccount(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
