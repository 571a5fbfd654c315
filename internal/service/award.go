package service

import (
	"context"
	"time"

	"irl-points-system/internal/config"
	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/keylock"
	"irl-points-system/pkg/logger"

	"gorm.io/gorm"
)

// RejectReason classifies an award rejection. Rejections are expected
// outcomes returned to the caller, not errors.
type RejectReason string

const (
	ReasonRuleNotFound       RejectReason = "rule_not_found"
	ReasonRuleInactive       RejectReason = "rule_inactive"
	ReasonRequirementsNotMet RejectReason = "requirements_not_met"
	ReasonDailyLimitExceeded RejectReason = "daily_limit_exceeded"
	ReasonTotalLimitExceeded RejectReason = "total_limit_exceeded"
	ReasonOnCooldown         RejectReason = "on_cooldown"
)

type AwardRequest struct {
	UserAddress  string
	ActivityType string
	Description  string
	Metadata     models.Metadata
	Facts        rules.Facts

	// PointsOverride carries an explicit value for administrative and
	// pending-replay awards. Eligibility, caps and cooldowns still apply;
	// only the multiplier computation is skipped.
	PointsOverride *int64
}

type AwardResult struct {
	Committed     bool         `json:"committed"`
	LedgerEntryID uint64       `json:"ledger_entry_id,omitempty"`
	PointsAwarded int64        `json:"points_awarded"`
	Reason        RejectReason `json:"reason,omitempty"`
	Missing       []string     `json:"missing,omitempty"`
	AvailableAt   *time.Time   `json:"available_at,omitempty"`
}

type CanPerformResult struct {
	CanPerform  bool         `json:"can_perform"`
	Reason      RejectReason `json:"reason,omitempty"`
	Missing     []string     `json:"missing,omitempty"`
	AvailableAt *time.Time   `json:"available_at,omitempty"`
}

// AwardService is the only component with a mutation entry point. Every
// check-then-write sequence for a (user, activityType) pair runs under a
// per-pair lock and commits in a single transaction, so two concurrent
// awards can never both pass a cap check they jointly violate.
type AwardService struct {
	db           *gorm.DB
	registry     *rules.Registry
	ledgerRepo   *repository.LedgerRepository
	cooldownRepo *repository.CooldownRepository
	accountRepo  *repository.AccountRepository
	locks        *keylock.KeyedMutex
	maxRetries   int
	retryBackoff time.Duration
	now          func() time.Time
}

func NewAwardService(
	db *gorm.DB,
	registry *rules.Registry,
	ledgerRepo *repository.LedgerRepository,
	cooldownRepo *repository.CooldownRepository,
	accountRepo *repository.AccountRepository,
	cfg *config.AwardConfig,
) *AwardService {
	maxRetries := 3
	backoff := 50 * time.Millisecond
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			maxRetries = cfg.MaxRetries
		}
		if cfg.RetryBackoffMS > 0 {
			backoff = time.Duration(cfg.RetryBackoffMS) * time.Millisecond
		}
	}
	return &AwardService{
		db:           db,
		registry:     registry,
		ledgerRepo:   ledgerRepo,
		cooldownRepo: cooldownRepo,
		accountRepo:  accountRepo,
		locks:        keylock.New(),
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		now:          time.Now,
	}
}

// Award runs the full pipeline: rule resolution, eligibility, value
// computation, cap and cooldown checks, then the atomic commit. Storage
// failures are retried a bounded number of times; the transaction is
// all-or-nothing and the checks re-run on every attempt, so a retry can
// never double-award.
func (s *AwardService) Award(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	release := s.locks.Acquire(lockKey(req.UserAddress, req.ActivityType))
	defer release()

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryBackoff * time.Duration(attempt)):
			}
			logger.WithFields(map[string]interface{}{
				"user_address":  req.UserAddress,
				"activity_type": req.ActivityType,
				"attempt":       attempt,
			}).Warn("Retrying award after storage failure")
		}

		result, err := s.awardOn(ctx, s.db, req)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, errors.New(errors.ErrAwardCommit, "award failed after retries", lastErr)
}

// awardOn evaluates and commits one award attempt against the given
// handle. Callers must hold the (user, activityType) lock. The handle may
// itself be a transaction; the commit then runs as a savepoint inside it.
func (s *AwardService) awardOn(ctx context.Context, dbh *gorm.DB, req AwardRequest) (*AwardResult, error) {
	rule, ok := s.registry.Get(req.ActivityType)
	if !ok {
		return &AwardResult{Reason: ReasonRuleNotFound}, nil
	}
	if !rule.IsActive {
		return &AwardResult{Reason: ReasonRuleInactive}, nil
	}

	eligible, missing := rules.CheckRequirements(rule, req.Facts)
	if !eligible {
		return &AwardResult{Reason: ReasonRequirementsNotMet, Missing: missing}, nil
	}

	candidate := rules.ComputeValue(rule, req.Facts)
	if req.PointsOverride != nil {
		candidate = *req.PointsOverride
		if candidate < 0 {
			candidate = 0
		}
	}

	now := s.now().UTC()
	ledger := s.ledgerRepo.WithTx(dbh)

	granted, reject, err := s.applyCaps(ctx, ledger, rule, req, candidate, now)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "cap check failed", err)
	}
	if reject != nil {
		return reject, nil
	}

	if rule.HasCooldown() {
		state, err := s.cooldownRepo.WithTx(dbh).Get(ctx, req.UserAddress, req.ActivityType)
		if err != nil {
			return nil, errors.New(errors.ErrStorage, "cooldown check failed", err)
		}
		if state != nil && now.Before(state.NextAvailableAt) {
			availableAt := state.NextAvailableAt
			return &AwardResult{Reason: ReasonOnCooldown, AvailableAt: &availableAt}, nil
		}
	}

	entry := &models.LedgerEntry{
		UserAddress:  req.UserAddress,
		ActivityType: req.ActivityType,
		PointsEarned: granted,
		Description:  req.Description,
		Metadata:     req.Metadata,
		Processed:    true,
		CreatedAt:    now,
	}

	err = dbh.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		if rule.HasCooldown() {
			next := now.Add(time.Duration(rule.CooldownHours) * time.Hour)
			if err := s.cooldownRepo.WithTx(tx).Upsert(ctx, req.UserAddress, req.ActivityType, now, next); err != nil {
				return err
			}
		}
		accounts := s.accountRepo.WithTx(tx)
		if _, err := accounts.GetOrCreate(ctx, req.UserAddress); err != nil {
			return err
		}
		if err := accounts.AddPoints(ctx, req.UserAddress, granted); err != nil {
			return err
		}
		if rule.AdvancesStreak {
			if _, _, err := accounts.AdvanceStreak(ctx, req.UserAddress, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "award transaction failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"user_address":   req.UserAddress,
		"activity_type":  req.ActivityType,
		"points_awarded": granted,
		"ledger_id":      entry.ID,
	}).Info("Points awarded")

	return &AwardResult{
		Committed:     true,
		LedgerEntryID: entry.ID,
		PointsAwarded: granted,
	}, nil
}

// applyCaps enforces the daily and lifetime caps. A cap clamps the
// multiplier output down to the remaining budget; the award is rejected
// outright when even the unmultiplied base value no longer fits.
func (s *AwardService) applyCaps(ctx context.Context, ledger *repository.LedgerRepository, rule rules.ActivityRule, req AwardRequest, candidate int64, now time.Time) (int64, *AwardResult, error) {
	floor := rule.BasePoints
	if candidate < floor {
		floor = candidate
	}

	if rule.HasDailyCap() {
		spent, err := ledger.SumSince(ctx, req.UserAddress, req.ActivityType, startOfDayUTC(now))
		if err != nil {
			return 0, nil, err
		}
		remaining := rule.MaxDailyPoints - spent
		if remaining <= 0 || remaining < floor {
			return 0, &AwardResult{Reason: ReasonDailyLimitExceeded}, nil
		}
		if candidate > remaining {
			candidate = remaining
		}
	}

	if rule.HasTotalCap() {
		spent, err := ledger.SumAll(ctx, req.UserAddress, req.ActivityType)
		if err != nil {
			return 0, nil, err
		}
		remaining := rule.MaxTotalPoints - spent
		if remaining <= 0 || remaining < floor {
			return 0, &AwardResult{Reason: ReasonTotalLimitExceeded}, nil
		}
		if candidate > remaining {
			candidate = remaining
		}
	}

	return candidate, nil, nil
}

// CanPerformActivity is the read-only dry run of the award pipeline. It
// exposes the same eligibility, cap and cooldown checks without writing,
// so surfaces can pre-disable actions.
func (s *AwardService) CanPerformActivity(ctx context.Context, userAddress, activityType string, facts rules.Facts) (*CanPerformResult, error) {
	rule, ok := s.registry.Get(activityType)
	if !ok {
		return &CanPerformResult{Reason: ReasonRuleNotFound}, nil
	}
	if !rule.IsActive {
		return &CanPerformResult{Reason: ReasonRuleInactive}, nil
	}

	eligible, missing := rules.CheckRequirements(rule, facts)
	if !eligible {
		return &CanPerformResult{Reason: ReasonRequirementsNotMet, Missing: missing}, nil
	}

	candidate := rules.ComputeValue(rule, facts)
	now := s.now().UTC()

	req := AwardRequest{UserAddress: userAddress, ActivityType: activityType}
	_, reject, err := s.applyCaps(ctx, s.ledgerRepo, rule, req, candidate, now)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "cap check failed", err)
	}
	if reject != nil {
		return &CanPerformResult{Reason: reject.Reason}, nil
	}

	if rule.HasCooldown() {
		state, err := s.cooldownRepo.Get(ctx, userAddress, activityType)
		if err != nil {
			return nil, errors.New(errors.ErrStorage, "cooldown check failed", err)
		}
		if state != nil && now.Before(state.NextAvailableAt) {
			availableAt := state.NextAvailableAt
			return &CanPerformResult{Reason: ReasonOnCooldown, AvailableAt: &availableAt}, nil
		}
	}

	return &CanPerformResult{CanPerform: true}, nil
}

// Registry exposes the rule catalog for display surfaces.
func (s *AwardService) Registry() *rules.Registry {
	return s.registry
}

func lockKey(userAddress, activityType string) string {
	return userAddress + ":" + activityType
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
