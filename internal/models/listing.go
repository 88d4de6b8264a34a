package models

import "time"

type Listing struct {
	// 基本情報
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID string `gorm:"type:varchar(36);not null;index" json:"account_id"`
	Slug      string `gorm:"type:varchar(180);not null;uniqueIndex" json:"slug"`
	Title     string `gorm:"type:text;not null" json:"title"`

	// 出品内容
	Description  string `gorm:"type:text" json:"description,omitempty"`
	Manufacturer string `gorm:"type:varchar(120);index" json:"manufacturer,omitempty"`
	ModelName    string `gorm:"type:varchar(120)" json:"model_name,omitempty"`
	Category     string `gorm:"type:varchar(60);index" json:"category,omitempty"`

	// PriceCents is the asking price in minor currency units.
	// nil means "price on request".
	PriceCents     *int   `gorm:"type:int" json:"price_cents,omitempty"`
	Negotiable     bool   `gorm:"not null;default:false" json:"negotiable"`
	Condition      string `gorm:"type:varchar(20)" json:"condition,omitempty"`
	YearBuilt      *int   `gorm:"type:int" json:"year_built,omitempty"`
	MeasuringRange string `gorm:"type:varchar(120)" json:"measuring_range,omitempty"`

	// 所在地
	Country    string `gorm:"type:varchar(2);index" json:"country,omitempty"`
	City       string `gorm:"type:varchar(120)" json:"city,omitempty"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code,omitempty"`

	// ステータス管理
	Status   ListingStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Featured bool          `gorm:"not null;default:false;index" json:"featured"`

	// 審査結果
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `gorm:"type:datetime" json:"rejected_at,omitempty"`
	RejectedBy      *string    `gorm:"type:varchar(36)" json:"rejected_by,omitempty"`

	// タイムスタンプ
	PublishedAt *time.Time `gorm:"type:datetime" json:"published_at,omitempty"`
	SoldAt      *time.Time `gorm:"type:datetime" json:"sold_at,omitempty"`
	DeletedAt   *time.Time `gorm:"type:datetime;index" json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"type:datetime;not null;autoCreateTime;index:idx_listing_created,sort:desc" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// ListingStatus は出品のライフサイクル状態
type ListingStatus string

const (
	StatusDraft         ListingStatus = "draft"
	StatusPendingReview ListingStatus = "pending_review"
	StatusActive        ListingStatus = "active"
	StatusSold          ListingStatus = "sold"
	StatusArchived      ListingStatus = "archived"
)

// Machine condition values accepted on create/update.
const (
	ConditionNew         = "new"
	ConditionDemo        = "demo"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
	ConditionDefective   = "defective"
)

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// IsDeleted reports whether the listing has been soft-deleted.
func (l *Listing) IsDeleted() bool {
	return l.DeletedAt != nil
}

// IsEditable reports whether business-field edits are still accepted.
// Sold, archived and soft-deleted listings are immutable.
func (l *Listing) IsEditable() bool {
	if l.IsDeleted() {
		return false
	}
	switch l.Status {
	case StatusDraft, StatusPendingReview, StatusActive:
		return true
	}
	return false
}

// CountsAgainstQuota reports whether the listing occupies a plan slot.
// Sold and archived listings release their slot.
func (l *Listing) CountsAgainstQuota() bool {
	if l.IsDeleted() {
		return false
	}
	switch l.Status {
	case StatusDraft, StatusPendingReview, StatusActive:
		return true
	}
	return false
}

// ValidCondition reports whether s is a known machine condition.
func ValidCondition(s string) bool {
	switch s {
	case ConditionNew, ConditionDemo, ConditionUsed, ConditionRefurbished, ConditionDefective:
		return true
	}
	return false
}
