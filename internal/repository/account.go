package repository

import (
	"context"
	"errors"
	"time"

	"irl-points-system/internal/models"
	"irl-points-system/internal/rules"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

func (r *AccountRepository) GetByAddress(ctx context.Context, userAddress string) (*models.UserPointsAccount, error) {
	var account models.UserPointsAccount
	err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.UserPointsAccount, error) {
	var account models.UserPointsAccount
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetOrCreate returns the account for an address, creating the initial
// row on first contact.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userAddress string) (*models.UserPointsAccount, error) {
	account := &models.UserPointsAccount{
		UserAddress:  userAddress,
		CurrentLevel: 1,
	}
	err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		FirstOrCreate(account).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AddPoints atomically increments the account total and recomputes the
// derived level from the fresh total.
func (r *AccountRepository) AddPoints(ctx context.Context, userAddress string, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Where("user_address = ?", userAddress).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	var account models.UserPointsAccount
	if err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		First(&account).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Where("user_address = ?", userAddress).
		UpdateColumn("current_level", rules.LevelForPoints(account.TotalPoints)).Error
}

// SetTotal overwrites the projected total and level. Reserved for
// reconciliation against the ledger.
func (r *AccountRepository) SetTotal(ctx context.Context, userAddress string, total int64) error {
	return r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Where("user_address = ?", userAddress).
		UpdateColumns(map[string]interface{}{
			"total_points":  total,
			"current_level": rules.LevelForPoints(total),
		}).Error
}

// AdvanceStreak applies the daily check-in streak transition for the
// given calendar day: consecutive day increments, same day is a no-op,
// a gap resets to 1. Returns the streak values after the transition.
func (r *AccountRepository) AdvanceStreak(ctx context.Context, userAddress string, today time.Time) (current, longest int64, err error) {
	today = truncateToDay(today)

	var account models.UserPointsAccount
	if err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		First(&account).Error; err != nil {
		return 0, 0, err
	}

	current = account.CurrentStreak
	longest = account.LongestStreak

	switch {
	case account.LastCheckinDate != nil && truncateToDay(*account.LastCheckinDate).Equal(today):
		// Idempotent re-entry on the same day.
		return current, longest, nil
	case account.LastCheckinDate != nil && truncateToDay(*account.LastCheckinDate).Equal(today.AddDate(0, 0, -1)):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}

	err = r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Where("user_address = ?", userAddress).
		UpdateColumns(map[string]interface{}{
			"current_streak":    current,
			"longest_streak":    longest,
			"last_checkin_date": today,
		}).Error
	return current, longest, err
}

// TopN lists accounts by total points descending. Ties break on the
// earlier account creation instant so rank is deterministic across
// refreshes.
func (r *AccountRepository) TopN(ctx context.Context, limit, offset int) ([]models.UserPointsAccount, error) {
	var accounts []models.UserPointsAccount
	err := r.db.WithContext(ctx).
		Order("total_points DESC, created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// RankOf returns a user's 1-based leaderboard rank, or 0 when the user
// has no account.
func (r *AccountRepository) RankOf(ctx context.Context, userAddress string) (int64, error) {
	account, err := r.GetByAddress(ctx, userAddress)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}

	var ahead int64
	err = r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Where("total_points > ? OR (total_points = ? AND created_at < ?) OR (total_points = ? AND created_at = ? AND id < ?)",
			account.TotalPoints,
			account.TotalPoints, account.CreatedAt,
			account.TotalPoints, account.CreatedAt, account.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserPointsAccount{}).
		Count(&count).Error
	return count, err
}

// ListAll walks every account in batches, for snapshot rebuilds and
// reconciliation sweeps.
func (r *AccountRepository) ListAll(ctx context.Context, batchSize int, fn func([]models.UserPointsAccount) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	var batch []models.UserPointsAccount
	return r.db.WithContext(ctx).
		Order("total_points DESC, created_at ASC, id ASC").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
