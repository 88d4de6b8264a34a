package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"machinery-marketplace/internal/cleanup"
	"machinery-marketplace/internal/config"
	"machinery-marketplace/internal/database"
	"machinery-marketplace/internal/search"
)

// Scheduler runs the nightly maintenance: retention cleanup of
// soft-deleted listings, then a full search index reconciliation so
// the public view never drifts from the store.
type Scheduler struct {
	cron      *cron.Cron
	listings  *database.ListingStore
	cleanup   *cleanup.Service
	index     *search.Client
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler. index may be nil when search
// is not configured.
func NewScheduler(db *gorm.DB, index *search.Client, cfg *config.Config) *Scheduler {
	gdb := database.NewGormDBFromDB(db)
	return &Scheduler{
		cron:     cron.New(),
		listings: gdb.Listings(),
		cleanup:  cleanup.NewService(db),
		index:    index,
		config:   cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.NightlyEnabled {
		log.Println("Scheduler: nightly maintenance is disabled in configuration")
		return nil
	}

	cronSpec := s.parseNightlyTime(s.config.Scheduler.NightlyTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: starting nightly maintenance...")
		if err := s.runMaintenance(); err != nil {
			log.Printf("Scheduler: nightly maintenance failed: %v", err)
		} else {
			log.Println("Scheduler: nightly maintenance completed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: started with nightly run at %s (cron: %s)", s.config.Scheduler.NightlyTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: stopped")
	}
}

// runMaintenance executes the nightly routine.
func (s *Scheduler) runMaintenance() error {
	cfg := cleanup.Config{
		RetentionDays:    s.config.Cleanup.RetentionDays,
		MaxDeletionCount: s.config.Cleanup.MaxDeletionCount,
		DryRun:           false,
	}
	result, err := s.cleanup.Purge(cfg)
	if err != nil {
		return err
	}
	log.Printf("Scheduler: cleanup purged %d listings (%d errors)", result.PurgedCount, result.ErrorCount)

	if s.index == nil {
		return nil
	}

	listings, err := s.listings.AllActive()
	if err != nil {
		return err
	}
	if err := s.index.ReindexAll(listings); err != nil {
		return err
	}
	log.Printf("Scheduler: reindexed %d active listings", len(listings))

	return nil
}

// RunNow immediately executes the maintenance job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: manual trigger - starting maintenance...")
	return s.runMaintenance()
}

// parseNightlyTime converts HH:MM format to cron specification
// Example: "03:30" -> "30 3 * * *"
func (s *Scheduler) parseNightlyTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	log.Printf("Scheduler: failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
