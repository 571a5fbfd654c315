package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is an opaque key-value bag stored as a JSON column. Keys are
// activity-specific; the engine only round-trips them.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// LedgerEntry is one immutable record of points awarded for one activity
// occurrence. Entries are only ever inserted; corrections are modeled as
// new offsetting entries, never in-place edits.
type LedgerEntry struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserAddress  string    `gorm:"size:64;not null;index:idx_user_activity,priority:1;index:idx_user_created,priority:1" json:"user_address"`
	ActivityType string    `gorm:"size:50;not null;index:idx_user_activity,priority:2" json:"activity_type"`
	PointsEarned int64     `gorm:"not null" json:"points_earned"`
	Description  string    `gorm:"size:255;not null" json:"description"`
	Metadata     Metadata  `gorm:"type:json" json:"metadata"`
	Processed    bool      `gorm:"not null;default:false" json:"processed"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_user_created,priority:2" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "points_activities"
}
