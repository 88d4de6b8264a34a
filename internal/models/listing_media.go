package models

import "time"

// ListingMedia represents an image or document attached to a listing.
// Ownership is transitive through the listing; media rows carry no
// account reference of their own.
type ListingMedia struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ListingID    string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	Kind         MediaKind `gorm:"type:varchar(20);not null;default:'image'" json:"kind"`
	URL          string    `gorm:"type:text;not null" json:"url"`
	ThumbnailURL string    `gorm:"type:text" json:"thumbnail_url,omitempty"`
	FileName     string    `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	IsPrimary    bool      `gorm:"not null;default:false;index" json:"is_primary"`
	SortOrder    int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MediaKind は添付種別
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindDocument MediaKind = "document"
)

// TableName specifies the table name for ListingMedia
func (ListingMedia) TableName() string {
	return "listing_media"
}
