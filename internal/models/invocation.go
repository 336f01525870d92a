package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invocation is the permanent finalization record for one settlement
// decision. A row exists only once the invocation has been finalized; the
// primary key on the caller-supplied identifier enforces at-most-once.
type Invocation struct {
	InvocationID string `gorm:"type:char(64);primaryKey"`
	RuleID       uint64 `gorm:"not null;index"`
	Asset        string `gorm:"type:varchar(100);not null"`

	Amount       decimal.Decimal `gorm:"type:numeric(78,0);not null"`
	OutcomeIndex int             `gorm:"not null"`
	FeeCharged   decimal.Decimal `gorm:"type:numeric(78,0);not null"`

	Finalized   bool      `gorm:"not null;default:true"`
	FinalizedAt time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Invocation) TableName() string {
	return "invocations"
}
