package models

import (
	"time"

	"gorm.io/datatypes"
)

// UnlimitedQuota is the sentinel for plans without a numeric ceiling.
const UnlimitedQuota = -1

// Plan is consumed read-only by this service: billing writes it,
// the entitlement resolver reads it.
type Plan struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug         string `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents   int    `gorm:"not null;default:0" json:"price_cents"`
	BillingCycle string `gorm:"type:varchar(20);not null;default:'monthly'" json:"billing_cycle"`

	// ListingLimit is the number of concurrently held non-terminal
	// listings. UnlimitedQuota means no ceiling.
	ListingLimit int `gorm:"not null;default:1" json:"listing_limit"`

	// Features holds the open-ended feature-flag map as stored by
	// billing, including featured_per_month.
	Features datatypes.JSON `gorm:"type:json" json:"features,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}

// Subscription links an account to a plan. Written by billing,
// read-only here.
type Subscription struct {
	ID                string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID         string             `gorm:"type:varchar(36);not null;index" json:"account_id"`
	PlanID            string             `gorm:"type:varchar(36);not null" json:"plan_id"`
	Status            SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CurrentPeriodEnd  *time.Time         `gorm:"type:datetime" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt        *time.Time         `gorm:"type:datetime" json:"canceled_at,omitempty"`
	CreatedAt         time.Time          `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// SubscriptionStatus は課金状態
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// GrantsEntitlement reports whether the subscription still confers its
// plan. past_due keeps access until billing cancels outright.
func (s *Subscription) GrantsEntitlement() bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue:
		return true
	}
	return false
}
