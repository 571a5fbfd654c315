package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"irl-points-system/internal/service"
	"irl-points-system/pkg/logger"
)

// LeaderboardScheduler periodically rebuilds the leaderboard snapshot.
type LeaderboardScheduler struct {
	cron           *cron.Cron
	leaderboardSvc *service.LeaderboardService
	cronExpr       string
}

func NewLeaderboardScheduler(leaderboardSvc *service.LeaderboardService, cronExpr string) *LeaderboardScheduler {
	if cronExpr == "" {
		cronExpr = "0 */5 * * * *"
	}
	return &LeaderboardScheduler{
		cron:           cron.New(cron.WithSeconds()),
		leaderboardSvc: leaderboardSvc,
		cronExpr:       cronExpr,
	}
}

func (s *LeaderboardScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, s.refresh)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Leaderboard refresh scheduler started")
	return nil
}

func (s *LeaderboardScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Leaderboard refresh scheduler stopped")
}

func (s *LeaderboardScheduler) refresh() {
	if err := s.leaderboardSvc.Refresh(context.Background()); err != nil {
		logger.Error("Leaderboard refresh failed:", err)
	}
}

// TriggerManualRefresh rebuilds the snapshot outside the cron cadence.
func (s *LeaderboardScheduler) TriggerManualRefresh(ctx context.Context) error {
	return s.leaderboardSvc.Refresh(ctx)
}
