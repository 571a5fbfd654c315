package repository

import (
	"context"
	"errors"

	"irl-points-system/internal/models"

	"gorm.io/gorm"
)

// LeaderboardRepository stores the rank snapshot. Only the refresh job
// writes here; everything it holds is derivable from the accounts table.
type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// ReplaceAll swaps the snapshot for a freshly computed one.
func (r *LeaderboardRepository) ReplaceAll(ctx context.Context, entries []models.LeaderboardSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.LeaderboardSnapshot{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 500).Error
	})
}

func (r *LeaderboardRepository) Top(ctx context.Context, limit, offset int) ([]models.LeaderboardSnapshot, error) {
	var entries []models.LeaderboardSnapshot
	err := r.db.WithContext(ctx).
		Order("rank ASC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *LeaderboardRepository) ByUser(ctx context.Context, userAddress string) (*models.LeaderboardSnapshot, error) {
	var entry models.LeaderboardSnapshot
	err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *LeaderboardRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LeaderboardSnapshot{}).
		Count(&count).Error
	return count, err
}
