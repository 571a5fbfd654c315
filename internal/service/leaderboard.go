package service

import (
	"context"
	"time"

	"irl-points-system/internal/config"
	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
	"irl-points-system/pkg/errors"
	"irl-points-system/pkg/logger"
)

// LeaderboardService serves rank queries and rebuilds the snapshot
// projection. Every value it returns is derivable from the accounts
// table; the snapshot only exists to make top-N pages cheap.
type LeaderboardService struct {
	accountRepo     *repository.AccountRepository
	leaderboardRepo *repository.LeaderboardRepository
	tiers           []rules.Tier
	maxPageSize     int
	now             func() time.Time
}

func NewLeaderboardService(
	accountRepo *repository.AccountRepository,
	leaderboardRepo *repository.LeaderboardRepository,
	cfg *config.LeaderboardConfig,
) *LeaderboardService {
	maxPageSize := 100
	if cfg != nil && cfg.MaxPageSize > 0 {
		maxPageSize = cfg.MaxPageSize
	}
	return &LeaderboardService{
		accountRepo:     accountRepo,
		leaderboardRepo: leaderboardRepo,
		tiers:           rules.DefaultTiers(),
		maxPageSize:     maxPageSize,
		now:             time.Now,
	}
}

// GetLeaderboard returns a page of the snapshot, ordered by rank. When
// the snapshot has not been built yet it falls back to a live query over
// the accounts so a fresh deployment still answers.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit, offset int) ([]models.LeaderboardSnapshot, error) {
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.leaderboardRepo.Top(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "leaderboard query failed", err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	count, err := s.leaderboardRepo.Count(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "leaderboard count failed", err)
	}
	if count > 0 {
		// Snapshot exists, the page is simply past its end.
		return []models.LeaderboardSnapshot{}, nil
	}

	accounts, err := s.accountRepo.TopN(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ErrStorage, "leaderboard fallback failed", err)
	}
	now := s.now().UTC()
	live := make([]models.LeaderboardSnapshot, 0, len(accounts))
	for i, account := range accounts {
		live = append(live, s.snapshotFor(account, int64(offset+i+1), now))
	}
	return live, nil
}

// GetRank returns a user's 1-based rank computed live from the accounts,
// or 0 when the user is not ranked.
func (s *LeaderboardService) GetRank(ctx context.Context, userAddress string) (int64, error) {
	rank, err := s.accountRepo.RankOf(ctx, userAddress)
	if err != nil {
		return 0, errors.New(errors.ErrStorage, "rank query failed", err)
	}
	return rank, nil
}

// Refresh rebuilds the snapshot from the current account aggregates.
func (s *LeaderboardService) Refresh(ctx context.Context) error {
	now := s.now().UTC()
	var entries []models.LeaderboardSnapshot
	rank := int64(0)

	err := s.accountRepo.ListAll(ctx, 500, func(batch []models.UserPointsAccount) error {
		for _, account := range batch {
			rank++
			entries = append(entries, s.snapshotFor(account, rank, now))
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.ErrStorage, "leaderboard rebuild scan failed", err)
	}

	if err := s.leaderboardRepo.ReplaceAll(ctx, entries); err != nil {
		return errors.New(errors.ErrStorage, "leaderboard rebuild write failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"entries": len(entries),
	}).Info("Leaderboard snapshot refreshed")
	return nil
}

func (s *LeaderboardService) snapshotFor(account models.UserPointsAccount, rank int64, now time.Time) models.LeaderboardSnapshot {
	tierName := ""
	if tier, ok := rules.TierForPoints(s.tiers, account.TotalPoints); ok {
		tierName = tier.Name
	}
	return models.LeaderboardSnapshot{
		Rank:        rank,
		UserAddress: account.UserAddress,
		Username:    account.Username,
		TotalPoints: account.TotalPoints,
		TierName:    tierName,
		RefreshedAt: now,
	}
}
