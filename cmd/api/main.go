package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"machinery-marketplace/internal/auth"
	"machinery-marketplace/internal/config"
	"machinery-marketplace/internal/database"
	"machinery-marketplace/internal/entitlement"
	"machinery-marketplace/internal/handlers"
	"machinery-marketplace/internal/lifecycle"
	"machinery-marketplace/internal/media"
	"machinery-marketplace/internal/notify"
	"machinery-marketplace/internal/ratelimit"
	"machinery-marketplace/internal/scheduler"
	"machinery-marketplace/internal/search"
)

var (
	gormDB       *database.GormDB
	reportingDB  *database.ReportingDB
	searchClient *search.Client
	appConfig    *config.Config
	rateLimiter  *ratelimit.Limiter
	appScheduler *scheduler.Scheduler
)

func main() {
	// Load .env before anything reads the environment
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	configPath := getEnv("CONFIG_PATH", "config/api_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Primary store (MySQL via GORM)
	mysqlCfg := appConfig.Database.MySQL
	portStr := ""
	if mysqlCfg.Port > 0 {
		portStr = fmt.Sprintf("%d", mysqlCfg.Port)
	}

	gormDB, err = database.NewGormDB(
		getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
		getEnvOrConfig(portStr, "DB_PORT", "3306"),
		getEnvOrConfig(mysqlCfg.User, "DB_USER", "marketplace_user"),
		getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "marketplace_pass"),
		getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "marketplace_db"),
	)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := gormDB.EnsureDefaultPlans(); err != nil {
		log.Fatalf("Failed to seed plans: %v", err)
	}

	// Optional Postgres reporting replica
	repCfg := appConfig.Database.Reporting
	if repCfg.Enabled {
		repPort := "5432"
		if repCfg.Port > 0 {
			repPort = fmt.Sprintf("%d", repCfg.Port)
		}
		sslmode := repCfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		reportingDB, err = database.NewReportingDB(
			repCfg.Host, repPort, repCfg.User, repCfg.Password, repCfg.Database, sslmode,
		)
		if err != nil {
			log.Printf("Warning: failed to connect to reporting database: %v", err)
			reportingDB = nil
		} else {
			defer reportingDB.Close()
			log.Println("Reporting database connected")
		}
	}

	// Public listing index
	meiliHost := appConfig.Search.Meilisearch.Host
	if meiliHost == "" {
		meiliHost = getEnv("MEILISEARCH_HOST", "")
	}
	if meiliHost != "" {
		meiliKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
		searchClient = search.NewClient(meiliHost, meiliKey)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: failed to initialize search index: %v", err)
		}
	} else {
		log.Println("Search is not configured; public view refresh disabled")
	}

	// Core services
	resolver := entitlement.NewResolver(gormDB.Subscriptions())
	coordinator := media.NewCoordinator(gormDB.Media(), gormDB.Listings())
	notifier := notify.NewLogNotifier()

	var refresher lifecycle.Refresher
	if searchClient != nil {
		refresher = searchClient
	}
	engine := lifecycle.NewService(
		gormDB.Listings(),
		coordinator,
		resolver,
		gormDB.Events(),
		notifier,
		refresher,
	)

	// Rate limiter for mutating seller endpoints
	rateLimiter = ratelimit.NewLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Nightly maintenance
	appScheduler = scheduler.NewScheduler(gormDB.DB(), searchClient, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	jwtSecret := getEnvOrConfig(appConfig.Auth.JWTSecret, "JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT secret is not configured (auth.jwt_secret or JWT_SECRET)")
	}

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)

	listingHandler := handlers.NewListingHandler(engine, gormDB.Listings(), gormDB.Events(), resolver)
	mediaHandler := handlers.NewMediaHandler(coordinator)
	publicHandler := handlers.NewPublicHandler(gormDB.Listings(), gormDB.Media())
	reviewHandler := handlers.NewReviewHandler(engine, gormDB.Listings())
	adminHandler := handlers.NewAdminHandler(gormDB.DB(), reportingDB, searchClient, appScheduler)

	// Public browse
	public := r.Group("/api/public")
	{
		public.GET("/listings", publicHandler.List)
		public.GET("/listings/:slug", publicHandler.Get)
	}

	// Seller API
	seller := r.Group("/api", auth.RequireAccount(jwtSecret))
	{
		seller.GET("/listings", listingHandler.Mine)
		seller.GET("/listings/quota", listingHandler.Quota)
		seller.GET("/listings/entitlement", listingHandler.Entitlement)
		seller.GET("/listings/:id", listingHandler.Get)
		seller.GET("/listings/:id/events", listingHandler.Events)
		seller.GET("/listings/:id/media", mediaHandler.List)

		mutating := seller.Group("", rateLimitMiddleware())
		{
			mutating.POST("/listings", listingHandler.Create)
			mutating.PUT("/listings/:id", listingHandler.Update)
			mutating.POST("/listings/:id/submit", listingHandler.Submit)
			mutating.POST("/listings/:id/sold", listingHandler.MarkSold)
			mutating.POST("/listings/:id/archive", listingHandler.Archive)
			mutating.DELETE("/listings/:id", listingHandler.Delete)
			mutating.POST("/listings/:id/duplicate", listingHandler.Duplicate)
			mutating.PUT("/listings/:id/featured", listingHandler.ToggleFeatured)
			mutating.POST("/listings/:id/media", mediaHandler.Attach)
			mutating.DELETE("/media/:id", mediaHandler.Detach)
			mutating.PUT("/media/:id/primary", mediaHandler.SetPrimary)
		}
	}

	// Reviewer API
	review := r.Group("/api/review", auth.RequireReviewer(jwtSecret))
	{
		review.GET("/pending", reviewHandler.Pending)
		review.POST("/:id/approve", reviewHandler.Approve)
		review.POST("/:id/reject", reviewHandler.Reject)
	}

	// Admin API
	admin := r.Group("/api/admin", auth.RequireReviewer(jwtSecret))
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/reporting", adminHandler.GetReportingStats)
		admin.POST("/cleanup/run", adminHandler.RunCleanup)
		admin.GET("/cleanup/logs", adminHandler.GetDeleteLogs)
		admin.POST("/search/reindex", adminHandler.Reindex)
		admin.POST("/maintenance/run", adminHandler.RunMaintenance)
	}

	port := getEnvOrConfig(appConfig.Server.Port, "PORT", "8080")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// rateLimitMiddleware enforces the per-account mutation ceiling. Runs
// after RequireAccount so the account id is resolved.
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := auth.CurrentAccount(c)
		if !rateLimiter.Allow(accountID) {
			stats := rateLimiter.GetStats(accountID)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   stats,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
