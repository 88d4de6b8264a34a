package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"machinery-marketplace/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Account{},
		&models.Plan{},
		&models.Subscription{},
		&models.Listing{},
		&models.ListingMedia{},
		&models.ListingEvent{},
		&models.DeleteLog{},
	)
}

// Listings returns the listing store.
func (gdb *GormDB) Listings() *ListingStore {
	return &ListingStore{db: gdb.db}
}

// Media returns the media store.
func (gdb *GormDB) Media() *MediaStore {
	return &MediaStore{db: gdb.db}
}

// Subscriptions returns the subscription store.
func (gdb *GormDB) Subscriptions() *SubscriptionStore {
	return &SubscriptionStore{db: gdb.db}
}

// Events returns the listing event store.
func (gdb *GormDB) Events() *EventStore {
	return &EventStore{db: gdb.db}
}

// EnsureDefaultPlans seeds the plan catalog on first boot so a fresh
// install has something to subscribe to. Existing rows are left alone;
// billing owns them once created.
func (gdb *GormDB) EnsureDefaultPlans() error {
	defaults := []models.Plan{
		{
			Slug:         "basic",
			Name:         "Basic",
			PriceCents:   0,
			ListingLimit: 1,
			Features:     datatypes.JSON([]byte(`{"featured_per_month": 0}`)),
		},
		{
			Slug:         "business",
			Name:         "Business",
			PriceCents:   4900,
			ListingLimit: 10,
			Features:     datatypes.JSON([]byte(`{"featured_per_month": 2}`)),
		},
		{
			Slug:         "dealer",
			Name:         "Dealer",
			PriceCents:   19900,
			ListingLimit: models.UnlimitedQuota,
			Features:     datatypes.JSON([]byte(`{"featured_per_month": 10}`)),
		},
	}

	for _, plan := range defaults {
		var existing models.Plan
		err := gdb.db.Where("slug = ?", plan.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		plan.ID = uuid.NewString()
		if err := gdb.db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}
