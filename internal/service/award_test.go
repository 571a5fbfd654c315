package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"irl-points-system/internal/models"
	"irl-points-system/internal/repository"
	"irl-points-system/internal/rules"
)

var dbSeq int64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeClock makes cooldown and cap windows deterministic in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	db          *gorm.DB
	clock       *fakeClock
	ledgerRepo  *repository.LedgerRepository
	accountRepo *repository.AccountRepository
	pendingRepo *repository.PendingRepository
	awards      *AwardService
	referrals   *ReferralService
	stats       *StatsService
	leaderboard *LeaderboardService
	bulk        *BulkAwardService
	reconcile   *ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupDB(t)
	registry, err := rules.NewRegistry(rules.DefaultCatalog())
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	clock := newFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	ledgerRepo := repository.NewLedgerRepository(db)
	cooldownRepo := repository.NewCooldownRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	pendingRepo := repository.NewPendingRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	awards := NewAwardService(db, registry, ledgerRepo, cooldownRepo, accountRepo, nil)
	awards.now = clock.Now
	referrals := NewReferralService(db, referralRepo, accountRepo, awards)
	stats := NewStatsService(db, accountRepo, ledgerRepo, pendingRepo, awards, referrals)
	leaderboard := NewLeaderboardService(accountRepo, leaderboardRepo, nil)
	leaderboard.now = clock.Now

	return &testEnv{
		db:          db,
		clock:       clock,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		pendingRepo: pendingRepo,
		awards:      awards,
		referrals:   referrals,
		stats:       stats,
		leaderboard: leaderboard,
		bulk:        NewBulkAwardService(accountRepo, pendingRepo, awards),
		reconcile:   NewReconcileService(ledgerRepo, accountRepo),
	}
}

// mustTotal asserts the account aggregate matches the ledger sum, the
// core consistency invariant of the whole engine.
func (e *testEnv) mustTotal(t *testing.T, user string, want int64) {
	t.Helper()
	ctx := context.Background()

	account, err := e.accountRepo.GetByAddress(ctx, user)
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if account == nil {
		t.Fatalf("no account for %s", user)
	}
	if account.TotalPoints != want {
		t.Fatalf("expected total %d, got %d", want, account.TotalPoints)
	}

	sum, err := e.ledgerRepo.SumForUser(ctx, user)
	if err != nil {
		t.Fatalf("ledger sum: %v", err)
	}
	if sum != account.TotalPoints {
		t.Fatalf("projection diverged from ledger: total=%d sum=%d", account.TotalPoints, sum)
	}
}

func TestAwardUnknownActivity(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.awards.Award(context.Background(), AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "no_such_activity",
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if result.Committed || result.Reason != ReasonRuleNotFound {
		t.Fatalf("expected rule_not_found rejection, got %+v", result)
	}
}

func TestAwardInactiveRule(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.awards.Award(context.Background(), AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "seasonal_event",
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if result.Committed || result.Reason != ReasonRuleInactive {
		t.Fatalf("expected rule_inactive rejection, got %+v", result)
	}
}

func TestAwardRequirementsNotMet(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.awards.Award(context.Background(), AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "content_creation",
		Facts:        rules.Facts{Level: 1},
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if result.Committed || result.Reason != ReasonRequirementsNotMet {
		t.Fatalf("expected requirements_not_met rejection, got %+v", result)
	}
	if len(result.Missing) != 1 {
		t.Fatalf("expected one missing requirement, got %v", result.Missing)
	}

	result, err = env.awards.Award(context.Background(), AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "content_creation",
		Facts:        rules.Facts{Level: 5},
	})
	if err != nil {
		t.Fatalf("Award eligible: %v", err)
	}
	if !result.Committed || result.PointsAwarded != 500 {
		t.Fatalf("expected 500 points at level 5, got %+v", result)
	}
}

func TestAwardCommitAndTotalCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "wallet_connect",
		Description:  "Connected wallet",
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if !result.Committed || result.PointsAwarded != 50 {
		t.Fatalf("expected committed 50 points, got %+v", result)
	}
	if result.LedgerEntryID == 0 {
		t.Fatal("expected ledger entry id on commit")
	}
	env.mustTotal(t, "0xabc", 50)

	// The one-shot rule is exhausted now.
	result, err = env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "wallet_connect",
	})
	if err != nil {
		t.Fatalf("Award repeat: %v", err)
	}
	if result.Committed || result.Reason != ReasonTotalLimitExceeded {
		t.Fatalf("expected total_limit_exceeded, got %+v", result)
	}
	env.mustTotal(t, "0xabc", 50)
}

func TestAwardZeroValueCommits(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.awards.Award(context.Background(), AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: rules.ActivityAdminBulkUpload,
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if !result.Committed || result.PointsAwarded != 0 {
		t.Fatalf("expected a committed zero-value entry, got %+v", result)
	}

	count, err := env.ledgerRepo.CountAll(context.Background())
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one ledger entry, got %d", count)
	}
}

func TestAwardPointsOverrideSkipsMultipliers(t *testing.T) {
	env := newTestEnv(t)

	points := int64(777)
	result, err := env.awards.Award(context.Background(), AwardRequest{
		UserAddress:    "0xabc",
		ActivityType:   rules.ActivityAdminBulkUpload,
		Facts:          rules.Facts{Streak: 30, Level: 25, Volume: 1e6},
		PointsOverride: &points,
	})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if !result.Committed || result.PointsAwarded != 777 {
		t.Fatalf("expected the explicit value untouched, got %+v", result)
	}
}

func TestDailyCheckinWeekWithStreakClamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	total := int64(0)
	for day := 1; day <= 7; day++ {
		env.clock.Set(start.AddDate(0, 0, day-1))

		result, err := env.awards.Award(ctx, AwardRequest{
			UserAddress:  "0xabc",
			ActivityType: rules.ActivityDailyCheckin,
			Facts:        rules.Facts{Streak: int64(day)},
		})
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		if !result.Committed {
			t.Fatalf("day %d: expected commit, got %+v", day, result)
		}
		// The 7-day streak multiplier raises the value to 15, but the
		// daily cap clamps it back to the remaining 10.
		if result.PointsAwarded != 10 {
			t.Fatalf("day %d: expected 10 points, got %d", day, result.PointsAwarded)
		}
		total += result.PointsAwarded

		// A second check-in on the same day is over the cap.
		repeat, err := env.awards.Award(ctx, AwardRequest{
			UserAddress:  "0xabc",
			ActivityType: rules.ActivityDailyCheckin,
			Facts:        rules.Facts{Streak: int64(day)},
		})
		if err != nil {
			t.Fatalf("day %d repeat: %v", day, err)
		}
		if repeat.Committed || repeat.Reason != ReasonDailyLimitExceeded {
			t.Fatalf("day %d repeat: expected daily_limit_exceeded, got %+v", day, repeat)
		}
	}

	env.mustTotal(t, "0xabc", total)

	account, err := env.accountRepo.GetByAddress(ctx, "0xabc")
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if account.CurrentStreak != 7 || account.LongestStreak != 7 {
		t.Fatalf("expected streak 7/7 after a full week, got %d/%d",
			account.CurrentStreak, account.LongestStreak)
	}
}

func TestDailyCapClampsPartialRemainder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// nft_trade: base 100, daily cap 1000. Nine awards leave 100, a
	// tenth fits exactly, an eleventh is rejected.
	for i := 0; i < 10; i++ {
		result, err := env.awards.Award(ctx, AwardRequest{
			UserAddress:  "0xabc",
			ActivityType: "nft_trade",
		})
		if err != nil {
			t.Fatalf("award %d: %v", i, err)
		}
		if !result.Committed || result.PointsAwarded != 100 {
			t.Fatalf("award %d: expected 100 points, got %+v", i, result)
		}
	}

	result, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "nft_trade",
	})
	if err != nil {
		t.Fatalf("over-cap award: %v", err)
	}
	if result.Committed || result.Reason != ReasonDailyLimitExceeded {
		t.Fatalf("expected daily_limit_exceeded, got %+v", result)
	}

	// The cap window resets at the next UTC day.
	env.clock.Advance(24 * time.Hour)
	result, err = env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "nft_trade",
	})
	if err != nil {
		t.Fatalf("next-day award: %v", err)
	}
	if !result.Committed {
		t.Fatalf("expected commit after window reset, got %+v", result)
	}
	env.mustTotal(t, "0xabc", 1100)
}

func TestCooldownBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// social_share: 1 hour cooldown.
	result, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "social_share",
	})
	if err != nil {
		t.Fatalf("first award: %v", err)
	}
	if !result.Committed {
		t.Fatalf("expected commit, got %+v", result)
	}
	firstAt := env.clock.Now().UTC()

	env.clock.Advance(59 * time.Minute)
	result, err = env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "social_share",
	})
	if err != nil {
		t.Fatalf("award at 59m: %v", err)
	}
	if result.Committed || result.Reason != ReasonOnCooldown {
		t.Fatalf("expected on_cooldown at 59 minutes, got %+v", result)
	}
	if result.AvailableAt == nil || !result.AvailableAt.Equal(firstAt.Add(time.Hour)) {
		t.Fatalf("expected availability at %v, got %v", firstAt.Add(time.Hour), result.AvailableAt)
	}

	// Exactly at the boundary the pair is available again.
	env.clock.Advance(time.Minute)
	result, err = env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "social_share",
	})
	if err != nil {
		t.Fatalf("award at 60m: %v", err)
	}
	if !result.Committed {
		t.Fatalf("expected commit at the cooldown boundary, got %+v", result)
	}
}

func TestConcurrentAwardsRespectDailyCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// daily_checkin caps at 10 with base 10, so of N racing awards
	// exactly one may commit.
	const workers = 8
	var committed int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			result, err := env.awards.Award(ctx, AwardRequest{
				UserAddress:  "0xabc",
				ActivityType: rules.ActivityDailyCheckin,
				Facts:        rules.Facts{Streak: 1},
			})
			if err != nil {
				t.Errorf("Award: %v", err)
				return
			}
			if result.Committed {
				atomic.AddInt64(&committed, 1)
			}
		}()
	}
	wg.Wait()

	if committed != 1 {
		t.Fatalf("expected exactly one committed award, got %d", committed)
	}
	env.mustTotal(t, "0xabc", 10)
}

func TestCanPerformActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	check, err := env.awards.CanPerformActivity(ctx, "0xabc", "wallet_connect", rules.Facts{})
	if err != nil {
		t.Fatalf("CanPerformActivity: %v", err)
	}
	if !check.CanPerform {
		t.Fatalf("expected fresh user to be able to perform, got %+v", check)
	}

	if _, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "wallet_connect",
	}); err != nil {
		t.Fatalf("Award: %v", err)
	}

	check, err = env.awards.CanPerformActivity(ctx, "0xabc", "wallet_connect", rules.Facts{})
	if err != nil {
		t.Fatalf("CanPerformActivity after award: %v", err)
	}
	if check.CanPerform || check.Reason != ReasonTotalLimitExceeded {
		t.Fatalf("expected total_limit_exceeded, got %+v", check)
	}

	// The dry run must not have written anything.
	count, err := env.ledgerRepo.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the single committed entry only, got %d", count)
	}
}

func TestAwardDoesNotAdvanceStreakForUnflaggedRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xabc",
		ActivityType: "wallet_connect",
	}); err != nil {
		t.Fatalf("Award: %v", err)
	}

	account, err := env.accountRepo.GetByAddress(ctx, "0xabc")
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if account.CurrentStreak != 0 || account.LastCheckinDate != nil {
		t.Fatalf("expected untouched streak state, got %+v", account)
	}
}
