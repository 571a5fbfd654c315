package repository

import (
	"context"
	"errors"
	"time"

	"irl-points-system/internal/models"

	"gorm.io/gorm"
)

type CooldownRepository struct {
	db *gorm.DB
}

func NewCooldownRepository(db *gorm.DB) *CooldownRepository {
	return &CooldownRepository{db: db}
}

func (r *CooldownRepository) WithTx(tx *gorm.DB) *CooldownRepository {
	return &CooldownRepository{db: tx}
}

// Get returns the cooldown state for a (user, activity) pair, or nil when
// the pair has never fired.
func (r *CooldownRepository) Get(ctx context.Context, userAddress, activityType string) (*models.CooldownState, error) {
	var state models.CooldownState
	err := r.db.WithContext(ctx).
		Where("user_address = ? AND activity_type = ?", userAddress, activityType).
		First(&state).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Upsert records the latest activity instant and the next-eligible
// instant for a (user, activity) pair.
func (r *CooldownRepository) Upsert(ctx context.Context, userAddress, activityType string, lastActivityAt, nextAvailableAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CooldownState{}).
		Where("user_address = ? AND activity_type = ?", userAddress, activityType).
		Updates(map[string]interface{}{
			"last_activity_at":  lastActivityAt,
			"next_available_at": nextAvailableAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&models.CooldownState{
		UserAddress:     userAddress,
		ActivityType:    activityType,
		LastActivityAt:  lastActivityAt,
		NextAvailableAt: nextAvailableAt,
	}).Error
}
