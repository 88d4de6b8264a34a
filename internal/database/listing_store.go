package database

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"machinery-marketplace/internal/models"
)

// ListingStore is the MySQL-backed listing persistence. All reads
// exclude soft-deleted rows.
type ListingStore struct {
	db *gorm.DB
}

// GetByID retrieves a non-deleted listing. Returns (nil, nil) when no
// visible row exists.
func (s *ListingStore) GetByID(id string) (*models.Listing, error) {
	var l models.Listing
	err := s.db.Where("id = ? AND deleted_at IS NULL", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetActiveBySlug retrieves a publicly visible listing by its slug.
func (s *ListingStore) GetActiveBySlug(slug string) (*models.Listing, error) {
	var l models.Listing
	err := s.db.Where("slug = ? AND status = ? AND deleted_at IS NULL",
		slug, models.StatusActive).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new listing row.
func (s *ListingStore) Create(l *models.Listing) error {
	return s.db.Create(l).Error
}

// Update saves the full listing row. GORM bumps updated_at.
func (s *ListingStore) Update(l *models.Listing) error {
	l.UpdatedAt = time.Now()
	return s.db.Save(l).Error
}

// CountQuotaRelevant counts the account's non-deleted listings whose
// status still occupies a plan slot.
func (s *ListingStore) CountQuotaRelevant(accountID string) (int, error) {
	var count int64
	err := s.db.Model(&models.Listing{}).
		Where("account_id = ? AND deleted_at IS NULL AND status IN ?",
			accountID, []models.ListingStatus{
				models.StatusDraft,
				models.StatusPendingReview,
				models.StatusActive,
			}).
		Count(&count).Error
	return int(count), err
}

// CountFeatured counts the account's currently featured, active,
// non-deleted listings.
func (s *ListingStore) CountFeatured(accountID string) (int, error) {
	var count int64
	err := s.db.Model(&models.Listing{}).
		Where("account_id = ? AND featured = ? AND status = ? AND deleted_at IS NULL",
			accountID, true, models.StatusActive).
		Count(&count).Error
	return int(count), err
}

// ListByAccount returns the account's non-deleted listings, newest
// first. Drives the seller dashboard.
func (s *ListingStore) ListByAccount(accountID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("account_id = ? AND deleted_at IS NULL", accountID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// ListActive returns publicly visible listings, featured first, newest
// within each group.
func (s *ListingStore) ListActive(limit, offset int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 20
	}
	var listings []models.Listing
	err := s.db.Where("status = ? AND deleted_at IS NULL", models.StatusActive).
		Order("featured DESC, published_at DESC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	return listings, err
}

// ListPendingReview returns the review queue, oldest submission first.
func (s *ListingStore) ListPendingReview(limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	var listings []models.Listing
	err := s.db.Where("status = ? AND deleted_at IS NULL", models.StatusPendingReview).
		Order("updated_at ASC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

// AllActive returns every publicly visible listing. Used by the search
// reindex job.
func (s *ListingStore) AllActive() ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("status = ? AND deleted_at IS NULL", models.StatusActive).
		Find(&listings).Error
	return listings, err
}

// StatusCounts returns the account's listing counts per status,
// excluding soft-deleted rows.
func (s *ListingStore) StatusCounts(accountID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := s.db.Model(&models.Listing{}).
		Select("status, count(*) as count").
		Where("account_id = ? AND deleted_at IS NULL", accountID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
