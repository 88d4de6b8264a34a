package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"machinery-marketplace/internal/auth"
	"machinery-marketplace/internal/database"
	"machinery-marketplace/internal/entitlement"
	"machinery-marketplace/internal/lifecycle"
)

// ListingHandler serves the seller-facing listing API.
type ListingHandler struct {
	service      *lifecycle.Service
	listings     *database.ListingStore
	events       *database.EventStore
	entitlements *entitlement.Resolver
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service *lifecycle.Service, listings *database.ListingStore, events *database.EventStore, entitlements *entitlement.Resolver) *ListingHandler {
	return &ListingHandler{
		service:      service,
		listings:     listings,
		events:       events,
		entitlements: entitlements,
	}
}

// Create handles POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req lifecycle.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Create(auth.CurrentAccount(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// updateRequest carries the business fields plus the updated_at the
// caller observed when it last read the listing. Omitting the
// timestamp skips the freshness check.
type updateRequest struct {
	lifecycle.ListingInput
	ObservedUpdatedAt *time.Time `json:"observed_updated_at"`
}

// Update handles PUT /api/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.Update(auth.CurrentAccount(c), c.Param("id"), req.ListingInput, req.ObservedUpdatedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Get handles GET /api/listings/:id (owner view)
func (h *ListingHandler) Get(c *gin.Context) {
	actorID := auth.CurrentAccount(c)
	listing, err := h.listings.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing"})
		return
	}
	if listing == nil || listing.AccountID != actorID {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Mine handles GET /api/listings (the seller's dashboard list)
func (h *ListingHandler) Mine(c *gin.Context) {
	accountID := auth.CurrentAccount(c)

	listings, err := h.listings.ListByAccount(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}

	counts, err := h.listings.StatusCounts(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing counts"})
		return
	}

	quota, err := h.service.CanCreate(accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings":      listings,
		"status_counts": counts,
		"quota":         quota,
	})
}

// Quota handles GET /api/listings/quota so the UI can pre-empt a
// doomed create call.
func (h *ListingHandler) Quota(c *gin.Context) {
	status, err := h.service.CanCreate(auth.CurrentAccount(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Entitlement handles GET /api/listings/entitlement
func (h *ListingHandler) Entitlement(c *gin.Context) {
	ent, err := h.entitlements.Resolve(auth.CurrentAccount(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve entitlement"})
		return
	}
	c.JSON(http.StatusOK, ent)
}

// Submit handles POST /api/listings/:id/submit
func (h *ListingHandler) Submit(c *gin.Context) {
	listing, err := h.service.SubmitForReview(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MarkSold handles POST /api/listings/:id/sold
func (h *ListingHandler) MarkSold(c *gin.Context) {
	listing, err := h.service.MarkSold(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Archive handles POST /api/listings/:id/archive
func (h *ListingHandler) Archive(c *gin.Context) {
	listing, err := h.service.Archive(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Delete handles DELETE /api/listings/:id (soft delete)
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(auth.CurrentAccount(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Duplicate handles POST /api/listings/:id/duplicate
func (h *ListingHandler) Duplicate(c *gin.Context) {
	listing, err := h.service.Duplicate(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// ToggleFeatured handles PUT /api/listings/:id/featured
func (h *ListingHandler) ToggleFeatured(c *gin.Context) {
	var req struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.service.ToggleFeatured(auth.CurrentAccount(c), c.Param("id"), *req.Featured)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"featured": listing.Featured})
}

// Events handles GET /api/listings/:id/events (transition history)
func (h *ListingHandler) Events(c *gin.Context) {
	actorID := auth.CurrentAccount(c)
	listing, err := h.listings.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing"})
		return
	}
	if listing == nil || listing.AccountID != actorID {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	events, err := h.events.ListByListing(listing.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing_id": listing.ID,
		"events":     events,
		"count":      len(events),
	})
}
