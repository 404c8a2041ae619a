package model

import (
	"time"
)

// UserAccount 用户账户表
type UserAccount struct {
	UserID           string    `gorm:"primaryKey;type:varchar(36)"`
	Username         string    `gorm:"type:varchar(64)"`
	RemainingCredits int       `gorm:"not null;default:0"`
	LastResetDate    string    `gorm:"type:varchar(10);not null"` // 2006-01-02
	ReferralCode     *string   `gorm:"type:varchar(16);uniqueIndex"`
	ReferredBy       *string   `gorm:"type:varchar(36)"` // 邀请人 user_id
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UserAccount) TableName() string {
	return "user_account"
}
