package service

import (
	"context"
	"time"

	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/logger"

	"gorm.io/gorm"
)

// ReferralService tracks referrer edges and drives the two referral
// award events. Both milestone payments are gated by a boolean flag that
// is checked and set inside the same transaction as the award, so a
// milestone is paid at most once even under concurrent signals.
type ReferralService struct {
	db           *gorm.DB
	referralRepo *repository.ReferralRepository
	accountRepo  *repository.AccountRepository
	awards       *AwardService
}

func NewReferralService(
	db *gorm.DB,
	referralRepo *repository.ReferralRepository,
	accountRepo *repository.AccountRepository,
	awards *AwardService,
) *ReferralService {
	return &ReferralService{
		db:           db,
		referralRepo: referralRepo,
		accountRepo:  accountRepo,
		awards:       awards,
	}
}

// RegisterReferral creates the edge and immediately pays the signup
// award. The unique index on the referred address rejects a second
// registration for the same user.
func (s *ReferralService) RegisterReferral(ctx context.Context, referrerAddress, referredAddress, code string) (*AwardResult, error) {
	if referrerAddress == "" || referredAddress == "" || referrerAddress == referredAddress {
		return nil, errors.New(errors.ErrReferralExists, "invalid referral pair", nil)
	}

	existing, err := s.referralRepo.GetByReferred(ctx, referredAddress)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "referral lookup failed", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrReferralExists, "user already has a referrer", nil)
	}

	release := s.awards.locks.Acquire(lockKey(referrerAddress, rules.ActivityReferralSignup))
	defer release()

	var result *AwardResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := &models.ReferralEdge{
			ReferredAddress: referredAddress,
			ReferrerAddress: referrerAddress,
			ReferralCode:    code,
		}
		if err := s.referralRepo.WithTx(tx).Create(ctx, edge); err != nil {
			return errors.New(errors.ErrReferralExists, "referral edge already exists", err)
		}

		facts, err := s.referrerFacts(ctx, tx, referrerAddress)
		if err != nil {
			return err
		}

		result, err = s.awards.awardOn(ctx, tx, AwardRequest{
			UserAddress:  referrerAddress,
			ActivityType: rules.ActivityReferralSignup,
			Description:  "Friend signed up using your referral code",
			Metadata:     models.Metadata{"referred_address": referredAddress, "referral_code": code},
			Facts:        facts,
		})
		if err != nil {
			return err
		}
		if !result.Committed {
			return nil
		}

		_, err = s.referralRepo.WithTx(tx).MarkSignupAwarded(ctx, referredAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"referrer": referrerAddress,
		"referred": referredAddress,
	}).Info("Referral registered")

	return result, nil
}

// MarkFirstTransaction pays the completion award for a referred user's
// first qualifying transaction. The conditional flag flip and the award
// commit in one transaction; if the award is rejected the flip rolls
// back so the milestone can be re-signaled once the rule allows it.
func (s *ReferralService) MarkFirstTransaction(ctx context.Context, referredAddress string) (*AwardResult, error) {
	edge, err := s.referralRepo.GetByReferred(ctx, referredAddress)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "referral lookup failed", err)
	}
	if edge == nil {
		return nil, errors.New(errors.ErrReferralMissing, "no referral recorded for user", nil)
	}
	if edge.TransactionPointsAwarded {
		return nil, errors.New(errors.ErrReferralDone, "referral transaction already processed", nil)
	}

	release := s.awards.locks.Acquire(lockKey(edge.ReferrerAddress, rules.ActivityReferralComplete))
	defer release()

	var result *AwardResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.referralRepo.WithTx(tx).MarkTransactionAwarded(ctx, referredAddress, time.Now().UTC())
		if err != nil {
			return errors.New(errors.ErrStorage, "referral flag update failed", err)
		}
		if !flipped {
			return errors.New(errors.ErrReferralDone, "referral transaction already processed", nil)
		}

		facts, err := s.referrerFacts(ctx, tx, edge.ReferrerAddress)
		if err != nil {
			return err
		}

		result, err = s.awards.awardOn(ctx, tx, AwardRequest{
			UserAddress:  edge.ReferrerAddress,
			ActivityType: rules.ActivityReferralComplete,
			Description:  "Your referral completed their first transaction",
			Metadata:     models.Metadata{"referred_address": referredAddress},
			Facts:        facts,
		})
		if err != nil {
			return err
		}
		if !result.Committed {
			return errors.New(errors.ErrAwardCommit, "referral completion award rejected: "+string(result.Reason), nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"referrer": edge.ReferrerAddress,
		"referred": referredAddress,
		"points":   result.PointsAwarded,
	}).Info("Referral completion awarded")

	return result, nil
}

// Stats summarizes a referrer's edges.
func (s *ReferralService) Stats(ctx context.Context, referrerAddress string) (*repository.ReferralStats, error) {
	return s.referralRepo.StatsByReferrer(ctx, referrerAddress)
}

// referrerFacts assembles award facts for a referrer from their account
// aggregate and edge count.
func (s *ReferralService) referrerFacts(ctx context.Context, tx *gorm.DB, referrerAddress string) (rules.Facts, error) {
	account, err := s.accountRepo.WithTx(tx).GetOrCreate(ctx, referrerAddress)
	if err != nil {
		return rules.Facts{}, errors.New(errors.ErrStorage, "referrer account load failed", err)
	}
	count, err := s.referralRepo.WithTx(tx).CountByReferrer(ctx, referrerAddress)
	if err != nil {
		return rules.Facts{}, errors.New(errors.ErrStorage, "referral count failed", err)
	}
	return rules.Facts{
		Level:          account.CurrentLevel,
		Streak:         account.CurrentStreak,
		AccountAgeDays: int64(time.Since(account.CreatedAt).Hours() / 24),
		ReferralCount:  count,
	}, nil
}
