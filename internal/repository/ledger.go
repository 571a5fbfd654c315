package repository

import (
	"context"
	"time"

	"irl-points-system/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository is the append-only store of award events. There are
// deliberately no update or delete methods here; corrections are new
// offsetting entries.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx returns a copy bound to the given transaction handle.
func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

func (r *LedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// SumSince totals the points awarded to a (user, activity) pair at or
// after the given instant.
func (r *LedgerRepository) SumSince(ctx context.Context, userAddress, activityType string, since time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_address = ? AND activity_type = ? AND created_at >= ?", userAddress, activityType, since).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&sum).Error
	return sum, err
}

// SumAll totals the points ever awarded to a (user, activity) pair.
func (r *LedgerRepository) SumAll(ctx context.Context, userAddress, activityType string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_address = ? AND activity_type = ?", userAddress, activityType).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&sum).Error
	return sum, err
}

// SumForUser totals every entry for a user across all activity types.
// Used by reconciliation to recompute the account projection.
func (r *LedgerRepository) SumForUser(ctx context.Context, userAddress string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_address = ?", userAddress).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&sum).Error
	return sum, err
}

// Cursor restarts a reverse-chronological page. The zero value starts
// from the newest entry. Pagination keys on (created_at, id) so pages
// stay stable while new entries are appended.
type Cursor struct {
	CreatedAt time.Time
	ID        uint64
}

func (c Cursor) isZero() bool {
	return c.CreatedAt.IsZero() && c.ID == 0
}

// RecentActivity returns a user's entries newest-first.
func (r *LedgerRepository) RecentActivity(ctx context.Context, userAddress string, limit int, cursor Cursor) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if !cursor.isZero() {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.LedgerEntry
	err := query.Find(&entries).Error
	return entries, err
}

// CountAll reports the total number of ledger entries.
func (r *LedgerRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Count(&count).Error
	return count, err
}
