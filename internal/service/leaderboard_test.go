package service

import (
	"context"
	"testing"
	"time"

	"irl-points-system/internal/models"
)

func seedAccount(t *testing.T, env *testEnv, address string, points int64, created time.Time) {
	t.Helper()
	err := env.db.Create(&models.UserPointsAccount{
		UserAddress:  address,
		Username:     address[2:],
		TotalPoints:  points,
		CurrentLevel: 1,
		CreatedAt:    created,
	}).Error
	if err != nil {
		t.Fatalf("seed account %s: %v", address, err)
	}
}

func TestRefreshBuildsRankedSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAccount(t, env, "0xbronze", 600, base)
	seedAccount(t, env, "0xgold", 12000, base)
	seedAccount(t, env, "0xsilver", 3000, base)

	if err := env.leaderboard.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	page, err := env.leaderboard.GetLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(page))
	}

	want := []struct {
		address string
		rank    int64
		tier    string
	}{
		{"0xgold", 1, "Curator"},
		{"0xsilver", 2, "Insider"},
		{"0xbronze", 3, "Regular"},
	}
	for i, w := range want {
		entry := page[i]
		if entry.UserAddress != w.address || entry.Rank != w.rank || entry.TierName != w.tier {
			t.Fatalf("position %d: expected %+v, got %+v", i, w, entry)
		}
	}
}

func TestGetLeaderboardFallsBackBeforeFirstRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAccount(t, env, "0xsmall", 10, base)
	seedAccount(t, env, "0xbig", 1000, base)

	page, err := env.leaderboard.GetLeaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected live fallback with 2 entries, got %d", len(page))
	}
	if page[0].UserAddress != "0xbig" || page[0].Rank != 1 {
		t.Fatalf("expected 0xbig first, got %+v", page[0])
	}
	if page[1].UserAddress != "0xsmall" || page[1].Rank != 2 {
		t.Fatalf("expected 0xsmall second, got %+v", page[1])
	}
}

func TestGetLeaderboardPastSnapshotEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedAccount(t, env, "0xonly", 100, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := env.leaderboard.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	page, err := env.leaderboard.GetLeaderboard(ctx, 10, 50)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page past the snapshot end, got %d entries", len(page))
	}
}

func TestRefreshReflectsNewAwards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedAccount(t, env, "0xlow", 40, base)
	seedAccount(t, env, "0xhigh", 60, base)

	if err := env.leaderboard.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// 0xlow overtakes via a new award; the snapshot is stale until the
	// next refresh, but rank queries are always live.
	result, err := env.awards.Award(ctx, AwardRequest{
		UserAddress:  "0xlow",
		ActivityType: "achievement_unlock",
	})
	if err != nil || !result.Committed {
		t.Fatalf("Award: %v %+v", err, result)
	}

	rank, err := env.leaderboard.GetRank(ctx, "0xlow")
	if err != nil {
		t.Fatalf("GetRank: %v", err)
	}
	if rank != 1 {
		t.Fatalf("expected live rank 1 after the award, got %d", rank)
	}

	page, err := env.leaderboard.GetLeaderboard(ctx, 1, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if page[0].UserAddress != "0xhigh" {
		t.Fatalf("expected stale snapshot to still lead with 0xhigh, got %s", page[0].UserAddress)
	}

	if err := env.leaderboard.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	page, err = env.leaderboard.GetLeaderboard(ctx, 1, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard after refresh: %v", err)
	}
	if page[0].UserAddress != "0xlow" {
		t.Fatalf("expected 0xlow to lead after refresh, got %s", page[0].UserAddress)
	}
}

func TestGetRankUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rank, err := env.leaderboard.GetRank(context.Background(), "0xnobody")
	if err != nil {
		t.Fatalf("GetRank: %v", err)
	}
	if rank != 0 {
		t.Fatalf("expected rank 0 for unknown user, got %d", rank)
	}
}
