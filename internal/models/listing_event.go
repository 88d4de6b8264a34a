package models

import "time"

// ListingEvent records one lifecycle transition of a listing.
type ListingEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID  string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	ActorID    string    `gorm:"type:varchar(36)" json:"actor_id,omitempty"`
	EventType  string    `gorm:"type:varchar(30);not null" json:"event_type"`
	FromStatus string    `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   string    `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (ListingEvent) TableName() string {
	return "listing_events"
}

// EventType constants
const (
	EventCreated    = "created"
	EventUpdated    = "updated"
	EventSubmitted  = "submitted"
	EventApproved   = "approved"
	EventRejected   = "rejected"
	EventSold       = "sold"
	EventArchived   = "archived"
	EventDeleted    = "deleted"
	EventDuplicated = "duplicated"
	EventFeatured   = "featured"
	EventUnfeatured = "unfeatured"
)
