package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"machinery-marketplace/internal/database"
)

// PublicHandler serves the unauthenticated browse API. Only active,
// non-deleted listings are ever visible here.
type PublicHandler struct {
	listings *database.ListingStore
	media    *database.MediaStore
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(listings *database.ListingStore, media *database.MediaStore) *PublicHandler {
	return &PublicHandler{listings: listings, media: media}
}

// List handles GET /api/public/listings
func (h *PublicHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	listings, err := h.listings.ListActive(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// Get handles GET /api/public/listings/:slug
func (h *PublicHandler) Get(c *gin.Context) {
	listing, err := h.listings.GetActiveBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listing"})
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	media, err := h.media.ListByListing(listing.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
		"media":   media,
	})
}
