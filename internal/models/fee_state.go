package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeState is the singleton fee configuration row. Mutated only through the
// two-phase timelock flow.
type FeeState struct {
	ID           uint64          `gorm:"primaryKey"`
	FeeBps       int64           `gorm:"not null"`
	FeeCap       decimal.Decimal `gorm:"type:numeric(78,0);not null"`
	FeeRecipient string          `gorm:"type:varchar(100);not null"`

	UpdateDelaySeconds int64 `gorm:"not null"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (FeeState) TableName() string {
	return "fee_state"
}

// PendingFeeUpdate is the optional singleton proposed fee change. A new
// schedule overwrites any unexecuted row; execution deletes it.
type PendingFeeUpdate struct {
	ID              uint64          `gorm:"primaryKey"`
	NewFeeBps       int64           `gorm:"not null"`
	NewFeeCap       decimal.Decimal `gorm:"type:numeric(78,0);not null"`
	NewFeeRecipient string          `gorm:"type:varchar(100);not null"`

	ETA time.Time `gorm:"type:timestamptz;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PendingFeeUpdate) TableName() string {
	return "pending_fee_updates"
}
