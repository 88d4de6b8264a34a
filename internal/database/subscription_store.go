package database

import (
	"errors"

	"gorm.io/gorm"

	"machinery-marketplace/internal/models"
)

// SubscriptionStore reads subscription and plan rows. This service
// never writes them; billing does.
type SubscriptionStore struct {
	db *gorm.DB
}

// SubscriptionWithPlan returns the account's most recent subscription
// and its plan, or (nil, nil, nil) when the account never subscribed.
func (s *SubscriptionStore) SubscriptionWithPlan(accountID string) (*models.Subscription, *models.Plan, error) {
	var sub models.Subscription
	err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var plan models.Plan
	err = s.db.Where("id = ?", sub.PlanID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Orphaned subscription row; treat as no entitlement.
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &sub, &plan, nil
}

// EventStore persists listing lifecycle audit rows.
type EventStore struct {
	db *gorm.DB
}

// Record inserts one transition row.
func (s *EventStore) Record(e *models.ListingEvent) error {
	return s.db.Create(e).Error
}

// ListByListing returns a listing's transition history, newest first.
func (s *EventStore) ListByListing(listingID string, limit int) ([]models.ListingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.ListingEvent
	err := s.db.Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
