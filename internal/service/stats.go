package service

import (
	"context"
	"fmt"

	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/logger"

	"gorm.io/gorm"
)

type UserStats struct {
	UserAddress   string `json:"user_address"`
	TotalPoints   int64  `json:"total_points"`
	Level         int64  `json:"level"`
	CurrentStreak int64  `json:"current_streak"`
	LongestStreak int64  `json:"longest_streak"`
}

// StatsService serves the per-user read surface and owns user
// registration, including the pending-award replay hook.
type StatsService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	pendingRepo *repository.PendingRepository
	awards      *AwardService
	referrals   *ReferralService
}

func NewStatsService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	pendingRepo *repository.PendingRepository,
	awards *AwardService,
	referrals *ReferralService,
) *StatsService {
	return &StatsService{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		pendingRepo: pendingRepo,
		awards:      awards,
		referrals:   referrals,
	}
}

// GetUserStats returns the aggregate projection for a user, creating the
// initial account row on first contact.
func (s *StatsService) GetUserStats(ctx context.Context, userAddress string) (*UserStats, error) {
	account, err := s.accountRepo.GetOrCreate(ctx, userAddress)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "account load failed", err)
	}
	return &UserStats{
		UserAddress:   account.UserAddress,
		TotalPoints:   account.TotalPoints,
		Level:         account.CurrentLevel,
		CurrentStreak: account.CurrentStreak,
		LongestStreak: account.LongestStreak,
	}, nil
}

// GetUserActivity pages a user's ledger entries newest-first.
func (s *StatsService) GetUserActivity(ctx context.Context, userAddress string, limit int, cursor repository.Cursor) ([]models.LedgerEntry, error) {
	return s.ledgerRepo.RecentActivity(ctx, userAddress, limit, cursor)
}

// RegisterRequest carries the data an upstream identity service supplies
// when a user first appears.
type RegisterRequest struct {
	UserAddress     string
	Username        string
	Email           string
	ReferrerAddress string
	ReferralCode    string
}

// RegisterUser creates the account, replays any pending awards uploaded
// for the user's email before they registered, and records a referral
// edge when a referrer is supplied.
func (s *StatsService) RegisterUser(ctx context.Context, req RegisterRequest) (*models.UserPointsAccount, error) {
	if req.UserAddress == "" {
		return nil, errors.New(errors.ErrUserMissing, "user address is required", nil)
	}

	_, err := s.accountRepo.GetOrCreate(ctx, req.UserAddress)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "account create failed", err)
	}
	if req.Username != "" || req.Email != "" {
		updates := map[string]interface{}{}
		if req.Username != "" {
			updates["username"] = req.Username
		}
		if req.Email != "" {
			updates["email"] = req.Email
		}
		if err := s.db.WithContext(ctx).
			Model(&models.UserPointsAccount{}).
			Where("user_address = ?", req.UserAddress).
			Updates(updates).Error; err != nil {
			return nil, errors.New(errors.ErrStorage, "account update failed", err)
		}
	}

	if req.Email != "" {
		if err := s.replayPending(ctx, req.UserAddress, req.Email); err != nil {
			return nil, err
		}
	}

	if req.ReferrerAddress != "" {
		if _, err := s.referrals.RegisterReferral(ctx, req.ReferrerAddress, req.UserAddress, req.ReferralCode); err != nil {
			// Registration succeeded; a duplicate or rejected referral is
			// reported but does not undo the account.
			logger.WithFields(map[string]interface{}{
				"user_address": req.UserAddress,
				"referrer":     req.ReferrerAddress,
			}).Warn("Referral registration skipped: ", err)
		}
	}

	return s.accountRepo.GetByAddress(ctx, req.UserAddress)
}

// replayPending pushes each waiting upload row for the email through the
// normal award path. The awarded flag flips in the same transaction as
// the award so a row pays out at most once.
func (s *StatsService) replayPending(ctx context.Context, userAddress, email string) error {
	rows, err := s.pendingRepo.ListUnawardedByEmail(ctx, email)
	if err != nil {
		return errors.New(errors.ErrStorage, "pending lookup failed", err)
	}
	if len(rows) == 0 {
		return nil
	}

	release := s.awards.locks.Acquire(lockKey(userAddress, rules.ActivityAdminBulkUpload))
	defer release()

	for _, row := range rows {
		row := row
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			flipped, err := s.pendingRepo.WithTx(tx).MarkAwarded(ctx, row.ID)
			if err != nil {
				return err
			}
			if !flipped {
				return nil
			}
			points := row.Points
			result, err := s.awards.awardOn(ctx, tx, AwardRequest{
				UserAddress:  userAddress,
				ActivityType: rules.ActivityAdminBulkUpload,
				Description:  fmt.Sprintf("Admin upload: %s", row.Reason),
				Metadata: models.Metadata{
					"upload_batch_id": row.UploadBatchID,
					"uploaded_by":     row.UploadedByEmail,
					"reason":          row.Reason,
					"replayed":        true,
				},
				PointsOverride: &points,
			})
			if err != nil {
				return err
			}
			if !result.Committed {
				return errors.New(errors.ErrAwardCommit, "pending replay rejected: "+string(result.Reason), nil)
			}
			return nil
		})
		if err != nil {
			return errors.New(errors.ErrStorage, "pending replay failed", err)
		}
		logger.WithFields(map[string]interface{}{
			"user_address": userAddress,
			"email":        email,
			"points":       row.Points,
			"batch_id":     row.UploadBatchID,
		}).Info("Pending points replayed")
	}

	return nil
}
