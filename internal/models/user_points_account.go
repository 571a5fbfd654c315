package models

import "time"

// UserPointsAccount is the per-user aggregate projection. TotalPoints is
// always the sum of that user's ledger entries; any divergence is a bug
// and is repaired by reconciliation, never by direct writes.
type UserPointsAccount struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserAddress     string     `gorm:"uniqueIndex;size:64;not null" json:"user_address"`
	Username        string     `gorm:"size:100" json:"username"`
	Email           string     `gorm:"size:255;index" json:"email"`
	TotalPoints     int64      `gorm:"not null;default:0" json:"total_points"`
	CurrentLevel    int64      `gorm:"not null;default:1" json:"current_level"`
	CurrentStreak   int64      `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak   int64      `gorm:"not null;default:0" json:"longest_streak"`
	LastCheckinDate *time.Time `json:"last_checkin_date"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserPointsAccount) TableName() string {
	return "user_points"
}
