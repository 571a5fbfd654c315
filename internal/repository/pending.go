package repository

import (
	"context"

	"irl-points-system/internal/models"

	"gorm.io/gorm"
)

type PendingRepository struct {
	db *gorm.DB
}

func NewPendingRepository(db *gorm.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

func (r *PendingRepository) WithTx(tx *gorm.DB) *PendingRepository {
	return &PendingRepository{db: tx}
}

func (r *PendingRepository) Create(ctx context.Context, pending *models.PendingAward) error {
	return r.db.WithContext(ctx).Create(pending).Error
}

// ListUnawardedByEmail returns the rows waiting for a user, oldest first
// so replay preserves upload order.
func (r *PendingRepository) ListUnawardedByEmail(ctx context.Context, email string) ([]models.PendingAward, error) {
	var rows []models.PendingAward
	err := r.db.WithContext(ctx).
		Where("email = ? AND awarded = ?", email, false).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// List pages pending rows newest-first, optionally including ones that
// have already been replayed.
func (r *PendingRepository) List(ctx context.Context, offset, limit int, includeAwarded bool) ([]models.PendingAward, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit)
	if !includeAwarded {
		query = query.Where("awarded = ?", false)
	}

	var rows []models.PendingAward
	err := query.Find(&rows).Error
	return rows, err
}

// MarkAwarded flips a row's awarded flag. Returns true when this call
// performed the transition.
func (r *PendingRepository) MarkAwarded(ctx context.Context, id uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PendingAward{}).
		Where("id = ? AND awarded = ?", id, false).
		UpdateColumn("awarded", true)
	return result.RowsAffected > 0, result.Error
}

// DeleteUnawarded removes a pending row that has not been replayed yet.
func (r *PendingRepository) DeleteUnawarded(ctx context.Context, id uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND awarded = ?", id, false).
		Delete(&models.PendingAward{})
	return result.RowsAffected > 0, result.Error
}
