package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"machinery-marketplace/internal/auth"
	"machinery-marketplace/internal/media"
)

// MediaHandler serves the media attachment API. Upload itself happens
// against the external media storage; these endpoints record the
// resulting URLs against a listing.
type MediaHandler struct {
	coordinator *media.Coordinator
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(coordinator *media.Coordinator) *MediaHandler {
	return &MediaHandler{coordinator: coordinator}
}

// Attach handles POST /api/listings/:id/media
func (h *MediaHandler) Attach(c *gin.Context) {
	var req media.AttachInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.coordinator.Attach(auth.CurrentAccount(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// List handles GET /api/listings/:id/media
func (h *MediaHandler) List(c *gin.Context) {
	items, err := h.coordinator.ListForListing(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"media": items,
		"count": len(items),
	})
}

// Detach handles DELETE /api/media/:id
func (h *MediaHandler) Detach(c *gin.Context) {
	if err := h.coordinator.Detach(auth.CurrentAccount(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// SetPrimary handles PUT /api/media/:id/primary
func (h *MediaHandler) SetPrimary(c *gin.Context) {
	m, err := h.coordinator.SetPrimary(auth.CurrentAccount(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
