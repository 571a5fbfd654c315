package models

import "time"

// LeaderboardSnapshot is a read-optimized projection over the account
// aggregates, rebuilt by the refresh job. It never accepts direct writes
// from request handling code.
type LeaderboardSnapshot struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	Rank        int64     `gorm:"not null;index" json:"rank"`
	UserAddress string    `gorm:"uniqueIndex;size:64;not null" json:"user_address"`
	Username    string    `gorm:"size:100" json:"username"`
	TotalPoints int64     `gorm:"not null" json:"total_points"`
	TierName    string    `gorm:"size:50" json:"tier_name"`
	RefreshedAt time.Time `gorm:"not null" json:"refreshed_at"`
}

func (LeaderboardSnapshot) TableName() string {
	return "leaderboard"
}
