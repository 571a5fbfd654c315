package models

import "time"

// CooldownState records when a (user, activity) pair last fired and when
// it becomes available again. One row per pair, updated on every award of
// a cooldown-governed rule.
type CooldownState struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserAddress     string    `gorm:"uniqueIndex:uk_user_activity;size:64;not null" json:"user_address"`
	ActivityType    string    `gorm:"uniqueIndex:uk_user_activity;size:50;not null" json:"activity_type"`
	LastActivityAt  time.Time `gorm:"not null" json:"last_activity_at"`
	NextAvailableAt time.Time `gorm:"not null" json:"next_available_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CooldownState) TableName() string {
	return "activity_cooldowns"
}
