package models

import "time"

// Commitment records that a hash was published. Append-only: rows are never
// updated or deleted, so a reveal can be re-verified at any later time.
type Commitment struct {
	Hash      string    `gorm:"type:char(64);primaryKey"`
	Committer string    `gorm:"type:varchar(100);not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Commitment) TableName() string {
	return "commitments"
}
