package cleanup

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"machinery-marketplace/internal/models"
)

// Service physically purges listings whose soft-delete retention
// window has expired.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Config holds configuration for cleanup runs.
type Config struct {
	RetentionDays    int  // Days to keep soft-deleted listings before purging (default: 90)
	MaxDeletionCount int  // Maximum number of listings to purge in one run (safety limit)
	DryRun           bool // If true, only log what would be purged
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RetentionDays:    90,
		MaxDeletionCount: 10000,
		DryRun:           false,
	}
}

// Result holds the outcome of a cleanup run.
type Result struct {
	TargetCount    int       `json:"target_count"`
	PurgedCount    int       `json:"purged_count"`
	ErrorCount     int       `json:"error_count"`
	DryRun         bool      `json:"dry_run"`
	ExecutedAt     time.Time `json:"executed_at"`
	PurgedListings []string  `json:"purged_listings"`
	Errors         []string  `json:"errors,omitempty"`
}

// FindExpired finds soft-deleted listings whose deleted_at is older
// than the retention window.
func (s *Service) FindExpired(retentionDays int) ([]models.Listing, error) {
	var listings []models.Listing

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	err := s.db.Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired listings: %w", err)
	}

	log.Printf("[cleanup] found %d listings soft-deleted before %s", len(listings), cutoff.Format("2006-01-02"))
	return listings, nil
}

// Purge physically deletes expired listings with their media and event
// rows, writing one delete-log row per listing.
func (s *Service) Purge(cfg Config) (*Result, error) {
	result := &Result{
		DryRun:     cfg.DryRun,
		ExecutedAt: time.Now(),
	}

	expired, err := s.FindExpired(cfg.RetentionDays)
	if err != nil {
		return nil, err
	}
	result.TargetCount = len(expired)

	if result.TargetCount == 0 {
		log.Println("[cleanup] no expired listings to purge")
		return result, nil
	}

	// Safety check: abort if too many rows would go in one run
	if result.TargetCount > cfg.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d listings exceed max deletion limit of %d",
			result.TargetCount, cfg.MaxDeletionCount)
	}

	log.Printf("[cleanup] purging %d listings (retention: %d days, dry-run: %v)",
		result.TargetCount, cfg.RetentionDays, cfg.DryRun)

	for _, l := range expired {
		if cfg.DryRun {
			log.Printf("[cleanup] [DRY-RUN] would purge listing %s (title: %q, deleted at: %s)",
				l.ID, l.Title, l.DeletedAt.Format("2006-01-02"))
			result.PurgedListings = append(result.PurgedListings, l.ID)
			result.PurgedCount++
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			deleteLog := models.DeleteLog{
				ListingID:     l.ID,
				AccountID:     l.AccountID,
				Title:         l.Title,
				Slug:          l.Slug,
				SoftDeletedAt: *l.DeletedAt,
				Reason:        models.DeleteReasonExpired,
			}
			if err := tx.Create(&deleteLog).Error; err != nil {
				return err
			}
			if err := tx.Where("listing_id = ?", l.ID).Delete(&models.ListingMedia{}).Error; err != nil {
				return err
			}
			if err := tx.Where("listing_id = ?", l.ID).Delete(&models.ListingEvent{}).Error; err != nil {
				return err
			}
			return tx.Delete(&l).Error
		})

		if err != nil {
			errMsg := fmt.Sprintf("failed to purge listing %s: %v", l.ID, err)
			log.Printf("[cleanup] ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Printf("[cleanup] purged listing %s (title: %q)", l.ID, l.Title)
		result.PurgedListings = append(result.PurgedListings, l.ID)
		result.PurgedCount++
	}

	log.Printf("[cleanup] completed: %d/%d purged, %d errors (dry-run: %v)",
		result.PurgedCount, result.TargetCount, result.ErrorCount, cfg.DryRun)

	return result, nil
}

// Stats returns statistics about purged and pending listings.
func (s *Service) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalPurged int64
	if err := s.db.Model(&models.DeleteLog{}).Count(&totalPurged).Error; err != nil {
		return nil, err
	}
	stats["total_purged"] = totalPurged

	var recentPurged int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.DeleteLog{}).
		Where("purged_at >= ?", thirtyDaysAgo).
		Count(&recentPurged).Error; err != nil {
		return nil, err
	}
	stats["purged_last_30_days"] = recentPurged

	var pendingPurge int64
	if err := s.db.Model(&models.Listing{}).
		Where("deleted_at IS NOT NULL").
		Count(&pendingPurge).Error; err != nil {
		return nil, err
	}
	stats["currently_soft_deleted"] = pendingPurge

	return stats, nil
}

// RecentLogs returns recent delete-log entries.
func (s *Service) RecentLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := s.db.Order("purged_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
