package service

import (
	"context"

	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/logger"
)

// ReconcileService repairs account aggregates from the ledger. The
// totals are pure projections, so recomputing them from the entries is
// always safe and is the recovery path after a partial failure.
type ReconcileService struct {
	ledgerRepo  *repository.LedgerRepository
	accountRepo *repository.AccountRepository
}

func NewReconcileService(
	ledgerRepo *repository.LedgerRepository,
	accountRepo *repository.AccountRepository,
) *ReconcileService {
	return &ReconcileService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// ReconcileUser recomputes one user's total from the ledger and reports
// the drift that was repaired (zero when the projection was consistent).
func (s *ReconcileService) ReconcileUser(ctx context.Context, userAddress string) (int64, error) {
	account, err := s.accountRepo.GetByAddress(ctx, userAddress)
	if err != nil {
		return 0, errors.New(errors.ErrStorage, "account load failed", err)
	}
	if account == nil {
		return 0, errors.New(errors.ErrUserMissing, "no account for user", nil)
	}

	sum, err := s.ledgerRepo.SumForUser(ctx, userAddress)
	if err != nil {
		return 0, errors.New(errors.ErrStorage, "ledger sum failed", err)
	}

	drift := sum - account.TotalPoints
	if drift == 0 {
		return 0, nil
	}

	if err := s.accountRepo.SetTotal(ctx, userAddress, sum); err != nil {
		return 0, errors.New(errors.ErrReconcile, "projection repair failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"user_address": userAddress,
		"ledger_sum":   sum,
		"drift":        drift,
	}).Warn("Repaired diverged points projection")

	return drift, nil
}

// ReconcileAll sweeps every account and returns how many projections
// needed repair.
func (s *ReconcileService) ReconcileAll(ctx context.Context) (int, error) {
	repaired := 0
	err := s.accountRepo.ListAll(ctx, 500, func(batch []models.UserPointsAccount) error {
		for _, account := range batch {
			drift, err := s.ReconcileUser(ctx, account.UserAddress)
			if err != nil {
				return err
			}
			if drift != 0 {
				repaired++
			}
		}
		return nil
	})
	if err != nil {
		return repaired, err
	}
	return repaired, nil
}
