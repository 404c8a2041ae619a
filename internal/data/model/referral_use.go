package model

import (
	"time"
)

// ReferralUse 推荐码使用记录表（保证同一用户对同一推荐码只触发一次奖励）
type ReferralUse struct {
	ReferralUseID string    `gorm:"primaryKey;type:varchar(36)"`
	ReferralCode  string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_code_user,priority:1"`
	UsedByUserID  string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_code_user,priority:2"`
	UsedDate      string    `gorm:"type:varchar(10);not null"` // 2006-01-02
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ReferralUse) TableName() string {
	return "referral_use"
}
