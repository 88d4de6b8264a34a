package models

import "time"

// Account is a seller's company profile. It owns listings and at most
// one active subscription.
type Account struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CompanyName string    `gorm:"type:varchar(200);not null" json:"company_name"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Country     string    `gorm:"type:varchar(2)" json:"country,omitempty"`
	CreatedAt   time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Account) TableName() string {
	return "accounts"
}
