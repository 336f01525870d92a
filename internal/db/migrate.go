package db

import (
	"settlecore/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Rule{},
		&models.RuleOutcome{},
		&models.Commitment{},
		&models.Invocation{},
		&models.FeeState{},
		&models.PendingFeeUpdate{},
		&models.LedgerEvent{},
	)
}
