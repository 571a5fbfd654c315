package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/logger"
)

type BulkRowStatus string

const (
	BulkRowSuccess      BulkRowStatus = "success"
	BulkRowFailed       BulkRowStatus = "failed"
	BulkRowUserNotFound BulkRowStatus = "user_not_found"
)

// BulkAwardRow is one parsed row of an administrative upload. Parsing the
// upload format happens at the edge; the service only sees rows.
type BulkAwardRow struct {
	Email  string `json:"email"`
	Points int64  `json:"points"`
	Reason string `json:"reason"`
}

type BulkRowResult struct {
	Email       string        `json:"email"`
	Points      int64         `json:"points"`
	Reason      string        `json:"reason"`
	Status      BulkRowStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	UserAddress string        `json:"user_address,omitempty"`
}

type BulkBatchResult struct {
	BatchID string          `json:"batch_id"`
	Results []BulkRowResult `json:"results"`
	Success int             `json:"success"`
	Failed  int             `json:"failed"`
	Pending int             `json:"pending"`
}

// BulkAwardService processes administrative uploads. Known users are
// awarded through the normal pipeline with the row's explicit value;
// rows for unknown users land in the pending holding area and are
// replayed when the user registers.
type BulkAwardService struct {
	accountRepo *repository.AccountRepository
	pendingRepo *repository.PendingRepository
	awards      *AwardService
}

func NewBulkAwardService(
	accountRepo *repository.AccountRepository,
	pendingRepo *repository.PendingRepository,
	awards *AwardService,
) *BulkAwardService {
	return &BulkAwardService{
		accountRepo: accountRepo,
		pendingRepo: pendingRepo,
		awards:      awards,
	}
}

// ProcessBatch awards every valid row under a shared batch identifier.
func (s *BulkAwardService) ProcessBatch(ctx context.Context, uploadedBy string, batch []BulkAwardRow) (*BulkBatchResult, error) {
	result := &BulkBatchResult{
		BatchID: uuid.NewString(),
		Results: make([]BulkRowResult, 0, len(batch)),
	}

	for _, row := range batch {
		row.Email = strings.ToLower(strings.TrimSpace(row.Email))
		rowResult := BulkRowResult{Email: row.Email, Points: row.Points, Reason: row.Reason}

		if row.Email == "" || row.Reason == "" || row.Points == 0 {
			rowResult.Status = BulkRowFailed
			rowResult.Error = "missing required fields (email, reason, or points)"
			result.Failed++
			result.Results = append(result.Results, rowResult)
			continue
		}
		if row.Points < 0 {
			rowResult.Status = BulkRowFailed
			rowResult.Error = "points must be a positive number"
			result.Failed++
			result.Results = append(result.Results, rowResult)
			continue
		}

		account, err := s.accountRepo.GetByEmail(ctx, row.Email)
		if err != nil {
			return nil, errors.New(errors.ErrStorage, "account lookup failed", err)
		}

		if account == nil {
			if err := s.pendingRepo.Create(ctx, &models.PendingAward{
				Email:           row.Email,
				Points:          row.Points,
				Reason:          row.Reason,
				UploadBatchID:   result.BatchID,
				UploadedByEmail: uploadedBy,
			}); err != nil {
				return nil, errors.New(errors.ErrStorage, "pending save failed", err)
			}
			rowResult.Status = BulkRowUserNotFound
			rowResult.Error = "user not found - saved as pending points for future signup"
			result.Pending++
			result.Results = append(result.Results, rowResult)
			continue
		}

		points := row.Points
		awardResult, err := s.awards.Award(ctx, AwardRequest{
			UserAddress:  account.UserAddress,
			ActivityType: rules.ActivityAdminBulkUpload,
			Description:  fmt.Sprintf("Admin upload: %s", row.Reason),
			Metadata: models.Metadata{
				"upload_batch_id": result.BatchID,
				"uploaded_by":     uploadedBy,
				"reason":          row.Reason,
			},
			PointsOverride: &points,
		})
		if err != nil {
			rowResult.Status = BulkRowFailed
			rowResult.Error = err.Error()
			result.Failed++
			result.Results = append(result.Results, rowResult)
			continue
		}
		if !awardResult.Committed {
			rowResult.Status = BulkRowFailed
			rowResult.Error = string(awardResult.Reason)
			result.Failed++
			result.Results = append(result.Results, rowResult)
			continue
		}

		rowResult.Status = BulkRowSuccess
		rowResult.UserAddress = account.UserAddress
		result.Success++
		result.Results = append(result.Results, rowResult)
	}

	logger.WithFields(map[string]interface{}{
		"batch_id": result.BatchID,
		"rows":     len(batch),
		"success":  result.Success,
		"failed":   result.Failed,
		"pending":  result.Pending,
	}).Info("Bulk award batch processed")

	return result, nil
}

// ListPending pages the holding area.
func (s *BulkAwardService) ListPending(ctx context.Context, offset, limit int, includeAwarded bool) ([]models.PendingAward, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.pendingRepo.List(ctx, offset, limit, includeAwarded)
}

// DeletePending removes a pending row that has not been replayed.
func (s *BulkAwardService) DeletePending(ctx context.Context, id uint64) (bool, error) {
	return s.pendingRepo.DeleteUnawarded(ctx, id)
}
