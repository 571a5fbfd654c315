package repository

import (
	"context"
	"errors"
	"time"

	"irl-points-system/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) WithTx(tx *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: tx}
}

// Create inserts the edge. The unique index on the referred address
// makes a second registration for the same user fail.
func (r *ReferralRepository) Create(ctx context.Context, edge *models.ReferralEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

func (r *ReferralRepository) GetByReferred(ctx context.Context, referredAddress string) (*models.ReferralEdge, error) {
	var edge models.ReferralEdge
	err := r.db.WithContext(ctx).
		Where("referred_address = ?", referredAddress).
		First(&edge).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerAddress string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralEdge{}).
		Where("referrer_address = ?", referrerAddress).
		Count(&count).Error
	return count, err
}

// MarkSignupAwarded flips the signup flag. Returns true when this call
// performed the transition, false when it had already happened.
func (r *ReferralRepository) MarkSignupAwarded(ctx context.Context, referredAddress string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReferralEdge{}).
		Where("referred_address = ? AND signup_points_awarded = ?", referredAddress, false).
		UpdateColumn("signup_points_awarded", true)
	return result.RowsAffected > 0, result.Error
}

// MarkTransactionAwarded flips the first-transaction flag and stamps the
// completion instant. The conditional update is the at-most-once gate:
// only the call whose update matched a row may pay the award.
func (r *ReferralRepository) MarkTransactionAwarded(ctx context.Context, referredAddress string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReferralEdge{}).
		Where("referred_address = ? AND transaction_points_awarded = ?", referredAddress, false).
		UpdateColumns(map[string]interface{}{
			"transaction_points_awarded": true,
			"first_transaction_at":       at,
		})
	return result.RowsAffected > 0, result.Error
}

// ReferralStats summarizes a referrer's edges.
type ReferralStats struct {
	TotalReferrals     int64 `json:"total_referrals"`
	CompletedReferrals int64 `json:"completed_referrals"`
}

func (r *ReferralRepository) StatsByReferrer(ctx context.Context, referrerAddress string) (*ReferralStats, error) {
	var stats ReferralStats
	err := r.db.WithContext(ctx).
		Model(&models.ReferralEdge{}).
		Where("referrer_address = ?", referrerAddress).
		Select("COUNT(*) as total_referrals, COUNT(first_transaction_at) as completed_referrals").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
