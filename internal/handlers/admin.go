package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"machinery-marketplace/internal/cleanup"
	"machinery-marketplace/internal/database"
	"machinery-marketplace/internal/models"
	"machinery-marketplace/internal/scheduler"
	"machinery-marketplace/internal/search"
)

// AdminHandler handles operational endpoints: marketplace statistics,
// retention cleanup and search reindexing.
type AdminHandler struct {
	db             *gorm.DB
	reporting      *database.ReportingDB
	listings       *database.ListingStore
	index          *search.Client
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
}

// NewAdminHandler creates a new admin handler. reporting, index and
// sched may be nil when the corresponding collaborator is not
// configured.
func NewAdminHandler(db *gorm.DB, reporting *database.ReportingDB, index *search.Client, sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{
		db:             db,
		reporting:      reporting,
		listings:       database.NewGormDBFromDB(db).Listings(),
		index:          index,
		scheduler:      sched,
		cleanupService: cleanup.NewService(db),
	}
}

// GetStats returns marketplace statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Listing counts by status
	statusCounts := make(map[string]int64)
	for _, status := range []models.ListingStatus{
		models.StatusDraft,
		models.StatusPendingReview,
		models.StatusActive,
		models.StatusSold,
		models.StatusArchived,
	} {
		var count int64
		h.db.Model(&models.Listing{}).
			Where("status = ? AND deleted_at IS NULL", status).
			Count(&count)
		statusCounts[string(status)] = count
	}
	stats["listings"] = statusCounts

	var featuredCount int64
	h.db.Model(&models.Listing{}).
		Where("featured = ? AND deleted_at IS NULL", true).
		Count(&featuredCount)
	stats["featured"] = featuredCount

	var accountCount int64
	h.db.Model(&models.Account{}).Count(&accountCount)
	stats["accounts"] = accountCount

	cleanupStats, err := h.cleanupService.Stats()
	if err != nil {
		log.Printf("Admin: failed to get cleanup stats: %v", err)
	} else {
		stats["cleanup"] = cleanupStats
	}

	c.JSON(http.StatusOK, stats)
}

// GetReportingStats returns the analytical breakdowns from the
// reporting replica.
func (h *AdminHandler) GetReportingStats(c *gin.Context) {
	if h.reporting == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "reporting database is not configured",
		})
		return
	}

	byStatus, err := h.reporting.ListingStatusBreakdown()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	categories, err := h.reporting.TopCategories(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	daily, err := h.reporting.ListingsCreatedSince(30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_status":      byStatus,
		"top_categories": categories,
		"daily_created":  daily,
	})
}

// RunCleanup executes physical deletion of expired soft-deleted
// listings
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    int  `json:"retention_days"`
		MaxDeletionCount int  `json:"max_deletion_count"`
		DryRun           bool `json:"dry_run"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := cleanup.DefaultConfig()
	if req.RetentionDays > 0 {
		cfg.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		cfg.MaxDeletionCount = req.MaxDeletionCount
	}
	cfg.DryRun = req.DryRun

	log.Printf("Admin: running cleanup (retention: %d days, max: %d, dry-run: %v)",
		cfg.RetentionDays, cfg.MaxDeletionCount, cfg.DryRun)

	result, err := h.cleanupService.Purge(cfg)
	if err != nil {
		log.Printf("Admin: cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.cleanupService.RecentLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// Reindex rebuilds the public search index from the store
func (h *AdminHandler) Reindex(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "search is not configured",
		})
		return
	}

	listings, err := h.listings.AllActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}

	if err := h.index.ReindexAll(listings); err != nil {
		log.Printf("Admin: reindex failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reindex failed"})
		return
	}

	log.Printf("Admin: reindexed %d active listings", len(listings))
	c.JSON(http.StatusOK, gin.H{
		"message": "reindex complete",
		"indexed": len(listings),
	})
}

// RunMaintenance manually triggers the nightly maintenance job
func (h *AdminHandler) RunMaintenance(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "scheduler is not available",
		})
		return
	}

	// Run in background to avoid timeout
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: manual maintenance failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "maintenance started in background",
		"status":  "running",
	})
}
