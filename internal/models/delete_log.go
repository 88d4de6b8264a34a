package models

import "time"

// DeleteLog records listings that were physically purged after their
// soft-delete retention window expired.
type DeleteLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID     string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	AccountID     string    `gorm:"type:varchar(36);not null;index" json:"account_id"`
	Title         string    `gorm:"type:text" json:"title"`
	Slug          string    `gorm:"type:varchar(180)" json:"slug"`
	SoftDeletedAt time.Time `gorm:"type:datetime" json:"soft_deleted_at"`
	PurgedAt      time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"purged_at"`
	Reason        string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonExpired = "retention_expired"
	DeleteReasonManual  = "manual_deletion"
)
