package model

import (
	"time"

	"vidociki/internal/constants"
)

// 支付订单状态常量（引用 constants 包中的常量，保持一致性）
const (
	IntentStatusPending   = constants.IntentStatusPending   // 待支付
	IntentStatusCompleted = constants.IntentStatusCompleted // 已入账
	IntentStatusCanceled  = constants.IntentStatusCanceled  // 已作废
)

// PaymentIntent 支付订单表（以网关 payment_id 为主键，用于幂等入账）
type PaymentIntent struct {
	PaymentID   string    `gorm:"primaryKey;type:varchar(64)"`
	UserID      string    `gorm:"type:varchar(36);not null;index"`
	PackageType string    `gorm:"type:varchar(32);not null"`
	AmountMinor int64     `gorm:"not null"`
	Credits     int       `gorm:"not null"`
	Status      string    `gorm:"type:enum('pending','completed','canceled');not null;default:'pending';index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PaymentIntent) TableName() string {
	return "payment_intent"
}
