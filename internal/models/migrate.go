package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the engine persists.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&LedgerEntry{},
		&CooldownState{},
		&UserPointsAccount{},
		&ReferralEdge{},
		&PendingAward{},
		&LeaderboardSnapshot{},
	)
}
