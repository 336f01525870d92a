package models

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEvent is one entry of the append-only observability stream. Seq is
// the global ordering consumed by indexers; downstream systems reconstruct
// state purely from this table.
type LedgerEvent struct {
	Seq     uint64         `gorm:"primaryKey;autoIncrement"`
	EventID string         `gorm:"type:char(36);not null;uniqueIndex"`
	Type    string         `gorm:"type:varchar(40);not null;index"`
	Payload datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}
