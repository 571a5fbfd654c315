package models

import "time"

// PendingAward holds a bulk-upload row for a user that has not registered
// yet. It is a holding area outside the ledger; rows are replayed through
// the normal award path once the user appears.
type PendingAward struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string    `gorm:"size:255;not null;index" json:"email"`
	Points          int64     `gorm:"not null" json:"points"`
	Reason          string    `gorm:"size:255;not null" json:"reason"`
	UploadBatchID   string    `gorm:"size:36;not null;index" json:"upload_batch_id"`
	UploadedByEmail string    `gorm:"size:255" json:"uploaded_by_email"`
	Awarded         bool      `gorm:"not null;default:false;index" json:"awarded"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PendingAward) TableName() string {
	return "pending_points"
}
