// Package media tracks which media belong to a listing and which image
// is primary. Ownership of a media row is transitive through its
// listing; the coordinator re-derives the owning listing for every
// mutation rather than denormalizing the account onto media rows.
package media

import (
	"log"
	"strings"

	"github.com/google/uuid"

	"machinery-marketplace/internal/apperr"
	"machinery-marketplace/internal/models"
)

// Store is the persistence surface for media rows. GetByID returns
// (nil, nil) when no row exists.
type Store interface {
	GetByID(id string) (*models.ListingMedia, error)
	ListByListing(listingID string) ([]models.ListingMedia, error)
	CountImages(listingID string) (int, error)
	Create(m *models.ListingMedia) error
	Delete(id string) error
	// MakePrimary atomically un-marks any other primary image of the
	// listing before marking the target.
	MakePrimary(listingID, mediaID string) error
}

// ListingLookup loads a listing so ownership can be verified. Excludes
// soft-deleted rows; returns (nil, nil) when not found.
type ListingLookup interface {
	GetByID(id string) (*models.Listing, error)
}

// Coordinator maintains the media invariants: at most one primary image
// per listing, the first image attached becomes primary automatically.
type Coordinator struct {
	store    Store
	listings ListingLookup
}

// NewCoordinator creates a media coordinator.
func NewCoordinator(store Store, listings ListingLookup) *Coordinator {
	return &Coordinator{store: store, listings: listings}
}

// AttachInput describes an uploaded object. The upload itself happens
// in the external media storage; this service only records the result.
type AttachInput struct {
	Kind         models.MediaKind `json:"kind"`
	URL          string           `json:"url"`
	ThumbnailURL string           `json:"thumbnail_url"`
	FileName     string           `json:"file_name"`
}

// verifyListingOwnership resolves the listing and confirms the actor
// owns it, conflating missing and not-owned into NOT_FOUND.
func (c *Coordinator) verifyListingOwnership(actorID, listingID string) (*models.Listing, error) {
	l, err := c.listings.GetByID(listingID)
	if err != nil {
		log.Printf("[media] load listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}
	if l == nil || l.AccountID != actorID {
		return nil, apperr.NotFound("listing not found")
	}
	return l, nil
}

// Attach records a new media row for a listing. The first image
// attached becomes the primary image. Sort order continues after the
// highest existing one.
func (c *Coordinator) Attach(actorID, listingID string, in AttachInput) (*models.ListingMedia, error) {
	l, err := c.verifyListingOwnership(actorID, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsEditable() {
		return nil, apperr.Forbidden("listing can no longer be edited")
	}
	if strings.TrimSpace(in.URL) == "" {
		return nil, apperr.Validation("media url is required")
	}
	if in.Kind == "" {
		in.Kind = models.MediaKindImage
	}
	if in.Kind != models.MediaKindImage && in.Kind != models.MediaKindDocument {
		return nil, apperr.Validation("unknown media kind: " + string(in.Kind))
	}

	existing, err := c.store.ListByListing(listingID)
	if err != nil {
		log.Printf("[media] list media for listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}

	nextOrder := 0
	hasImage := false
	for _, m := range existing {
		if m.SortOrder >= nextOrder {
			nextOrder = m.SortOrder + 1
		}
		if m.Kind == models.MediaKindImage {
			hasImage = true
		}
	}

	m := &models.ListingMedia{
		ID:           uuid.NewString(),
		ListingID:    listingID,
		Kind:         in.Kind,
		URL:          in.URL,
		ThumbnailURL: in.ThumbnailURL,
		FileName:     in.FileName,
		SortOrder:    nextOrder,
		IsPrimary:    in.Kind == models.MediaKindImage && !hasImage,
	}

	if err := c.store.Create(m); err != nil {
		log.Printf("[media] attach media to listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}
	return m, nil
}

// Detach removes a media row. The owning listing is re-derived from the
// media row before the ownership check. If the primary image is
// removed, the next image by sort order is promoted so a listing with
// images never loses its primary.
func (c *Coordinator) Detach(actorID, mediaID string) error {
	m, err := c.store.GetByID(mediaID)
	if err != nil {
		log.Printf("[media] load media %s failed: %v", mediaID, err)
		return apperr.Server(err)
	}
	if m == nil {
		return apperr.NotFound("media not found")
	}
	if _, err := c.verifyListingOwnership(actorID, m.ListingID); err != nil {
		return err
	}

	if err := c.store.Delete(m.ID); err != nil {
		log.Printf("[media] delete media %s failed: %v", mediaID, err)
		return apperr.Server(err)
	}

	if m.IsPrimary {
		if err := c.promoteNextImage(m.ListingID); err != nil {
			log.Printf("[media] promote next primary for listing %s failed: %v", m.ListingID, err)
		}
	}
	return nil
}

// SetPrimary marks an image as the listing's primary image,
// un-marking any other.
func (c *Coordinator) SetPrimary(actorID, mediaID string) (*models.ListingMedia, error) {
	m, err := c.store.GetByID(mediaID)
	if err != nil {
		log.Printf("[media] load media %s failed: %v", mediaID, err)
		return nil, apperr.Server(err)
	}
	if m == nil {
		return nil, apperr.NotFound("media not found")
	}
	if m.Kind != models.MediaKindImage {
		return nil, apperr.Validation("only images can be primary")
	}
	if _, err := c.verifyListingOwnership(actorID, m.ListingID); err != nil {
		return nil, err
	}

	if err := c.store.MakePrimary(m.ListingID, m.ID); err != nil {
		log.Printf("[media] set primary %s failed: %v", mediaID, err)
		return nil, apperr.Server(err)
	}
	m.IsPrimary = true
	return m, nil
}

// ListForListing returns a listing's media in display order, after the
// ownership check.
func (c *Coordinator) ListForListing(actorID, listingID string) ([]models.ListingMedia, error) {
	if _, err := c.verifyListingOwnership(actorID, listingID); err != nil {
		return nil, err
	}
	items, err := c.store.ListByListing(listingID)
	if err != nil {
		log.Printf("[media] list media for listing %s failed: %v", listingID, err)
		return nil, apperr.Server(err)
	}
	return items, nil
}

// CountImages satisfies the lifecycle submit gate.
func (c *Coordinator) CountImages(listingID string) (int, error) {
	return c.store.CountImages(listingID)
}

func (c *Coordinator) promoteNextImage(listingID string) error {
	items, err := c.store.ListByListing(listingID)
	if err != nil {
		return err
	}
	for _, m := range items {
		if m.Kind == models.MediaKindImage {
			return c.store.MakePrimary(listingID, m.ID)
		}
	}
	return nil
}
