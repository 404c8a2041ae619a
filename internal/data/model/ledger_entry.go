package model

import (
	"time"
)

// LedgerEntry 额度流水表（每次账户额度变动在同一事务内落一条）
type LedgerEntry struct {
	LedgerEntryID string    `gorm:"primaryKey;type:varchar(36)"`
	UserID        string    `gorm:"type:varchar(36);not null;index:idx_user_date,priority:1"`
	Type          string    `gorm:"type:enum('signup','debit','daily_reset','referral_bonus','purchase');not null"`
	Credits       int       `gorm:"not null"` // 变动量，扣减为负
	PaymentID     string    `gorm:"type:varchar(64)"` // 仅 purchase 类型填写
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_user_date,priority:2"`
}

// TableName 指定表名
func (LedgerEntry) TableName() string {
	return "ledger_entry"
}
