package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rule is an immutable weighted-outcome definition. IDs are assigned
// sequentially by the database and never reused.
type Rule struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Creator string `gorm:"type:varchar(100);not null;index"`

	Outcomes []RuleOutcome `gorm:"foreignKey:RuleID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Rule) TableName() string {
	return "rules"
}

// RuleOutcome is one entry of a rule's ordered outcome sequence. Idx is the
// declaration position; it defines the cumulative-weight bins used during
// selection, so it is part of the rule's semantics.
type RuleOutcome struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	RuleID uint64 `gorm:"not null;uniqueIndex:idx_rule_outcome_pos,priority:1"`
	Idx    int    `gorm:"not null;uniqueIndex:idx_rule_outcome_pos,priority:2"`

	Kind      int32           `gorm:"not null"`
	WeightBps int64           `gorm:"not null"`
	Param     decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0"`
}

func (RuleOutcome) TableName() string {
	return "rule_outcomes"
}
