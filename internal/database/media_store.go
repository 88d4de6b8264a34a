package database

import (
	"errors"

	"gorm.io/gorm"

	"machinery-marketplace/internal/models"
)

// MediaStore is the MySQL-backed media persistence.
type MediaStore struct {
	db *gorm.DB
}

// GetByID retrieves a media row. Returns (nil, nil) when absent.
func (s *MediaStore) GetByID(id string) (*models.ListingMedia, error) {
	var m models.ListingMedia
	err := s.db.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByListing returns a listing's media in display order.
func (s *MediaStore) ListByListing(listingID string) ([]models.ListingMedia, error) {
	var items []models.ListingMedia
	err := s.db.Where("listing_id = ?", listingID).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// CountImages counts the listing's attached images.
func (s *MediaStore) CountImages(listingID string) (int, error) {
	var count int64
	err := s.db.Model(&models.ListingMedia{}).
		Where("listing_id = ? AND kind = ?", listingID, models.MediaKindImage).
		Count(&count).Error
	return int(count), err
}

// Create inserts a new media row.
func (s *MediaStore) Create(m *models.ListingMedia) error {
	return s.db.Create(m).Error
}

// Delete removes a media row.
func (s *MediaStore) Delete(id string) error {
	return s.db.Where("id = ?", id).Delete(&models.ListingMedia{}).Error
}

// MakePrimary marks mediaID as the listing's primary image and
// un-marks every other one in the same transaction.
func (s *MediaStore) MakePrimary(listingID, mediaID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ListingMedia{}).
			Where("listing_id = ? AND id <> ?", listingID, mediaID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ListingMedia{}).
			Where("id = ? AND listing_id = ?", mediaID, listingID).
			Update("is_primary", true).Error
	})
}
