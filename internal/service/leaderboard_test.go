package service

import (
	"context"
	"testing"
	"time"

	"scoreledger/internal/models"
)

type ranked struct {
	player string
	points int64
	games  int64
}

func assertBoard(t *testing.T, resp *models.LeaderboardResponse, want []ranked) {
	t.Helper()
	if len(resp.Data) != len(want) {
		t.Fatalf("%s: expected %d entries, got %+v", resp.Period, len(want), resp.Data)
	}
	for i, w := range want {
		got := resp.Data[i]
		if got.UserID != w.player || got.TotalPoints != w.points || got.GamesPlayed != w.games || got.Rank != i+1 {
			t.Errorf("%s #%d: expected %+v, got %+v", resp.Period, i+1, w, got)
		}
	}
}

func TestLeaderboardWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncPlayers(t, "alice", "bob", "carol", "dave")

	f.addMatch(t, timedMatch("a-today", "alice", wednesday.Add(-time.Hour)))                            // 170
	f.addMatch(t, untimedMatch("a-feb", "alice", time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC), 50))     // 120
	f.addMatch(t, untimedMatch("b-mon", "bob", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 0))        // 100
	f.addMatch(t, untimedMatch("c-lastweek", "carol", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), 95)) // 140
	f.addMatch(t, untimedMatch("d-feb", "dave", time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC), 95))      // 140
	f.addMatch(t, timedMatch("d-jan", "dave", time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)))            // 170

	abandoned := timedMatch("b-abandoned", "bob", wednesday.Add(-time.Minute))
	abandoned.Status = "abandoned"
	f.addMatch(t, abandoned)

	tests := []struct {
		period models.Period
		want   []ranked
	}{
		{models.PeriodToday, []ranked{{"alice", 170, 1}}},
		{models.PeriodThisWeek, []ranked{{"alice", 170, 1}, {"bob", 100, 1}}},
		{models.PeriodThisMonth, []ranked{{"alice", 170, 1}, {"carol", 140, 1}, {"bob", 100, 1}}},
		{models.PeriodAllTime, []ranked{{"dave", 310, 2}, {"alice", 290, 2}, {"carol", 140, 1}, {"bob", 100, 1}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			resp, err := f.leaderboard.GetLeaderboard(ctx, tt.period, 1, 20)
			if err != nil {
				t.Fatal(err)
			}
			if resp.Total != int64(len(tt.want)) {
				t.Fatalf("expected total %d, got %d", len(tt.want), resp.Total)
			}
			assertBoard(t, resp, tt.want)
		})
	}
}

func TestLeaderboardTieBreakAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncPlayers(t, "p1", "p2", "p3", "p4", "p5")

	// Everybody scores 170 except p5.
	for _, id := range []string{"p4", "p2", "p3", "p1"} {
		f.addMatch(t, timedMatch("m-"+id, id, wednesday.Add(-time.Hour)))
	}
	f.addMatch(t, untimedMatch("m-p5", "p5", wednesday.Add(-time.Hour), 0))

	first, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodToday, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodToday, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	third, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodToday, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	got := []models.LeaderboardEntry{}
	for _, page := range []*models.LeaderboardResponse{first, second, third} {
		if page.Total != 5 {
			t.Fatalf("expected total 5, got %d", page.Total)
		}
		got = append(got, page.Data...)
	}
	wantOrder := []string{"p1", "p2", "p3", "p4", "p5"}
	for i, id := range wantOrder {
		if got[i].UserID != id || got[i].Rank != i+1 {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d", i, id, i+1, got[i].UserID, got[i].Rank)
		}
	}
}

func TestLeaderboardDropsPlayersWithoutIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncPlayers(t, "known", "other")

	f.addMatch(t, timedMatch("m1", "ghost", wednesday.Add(-time.Hour)))
	f.addMatch(t, untimedMatch("m2", "known", wednesday.Add(-time.Hour), 95))
	f.addMatch(t, untimedMatch("m3", "other", wednesday.Add(-time.Hour), 0))

	resp, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodAllTime, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 {
		t.Fatalf("expected 2 of 3 entries, got %d of %d", len(resp.Data), resp.Total)
	}
	// Ranks keep their aggregate position.
	if resp.Data[0].UserID != "known" || resp.Data[0].Rank != 2 || resp.Data[0].Username != "known_name" {
		t.Fatalf("unexpected first entry %+v", resp.Data[0])
	}
	if resp.Data[1].UserID != "other" || resp.Data[1].Rank != 3 {
		t.Fatalf("unexpected second entry %+v", resp.Data[1])
	}
}

func TestLeaderboardCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncPlayers(t, "alice", "bob")

	f.addMatch(t, timedMatch("a1", "alice", wednesday.Add(-time.Hour)))

	before, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodToday, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(before.Data) != 1 {
		t.Fatalf("unexpected board %+v", before.Data)
	}
	if keys := f.redis.Keys(); !containsPrefix(keys, "leaderboard:cache:today:") {
		t.Fatalf("page was not cached, keys=%v", keys)
	}

	// A completed match in the window is visible on the next read.
	f.addMatch(t, timedMatch("b1", "bob", wednesday.Add(-30*time.Minute)))
	f.addMatch(t, untimedMatch("b2", "bob", wednesday.Add(-20*time.Minute), 0))

	after, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodToday, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	assertBoard(t, after, []ranked{{"bob", 270, 2}, {"alice", 170, 1}})
}

func TestLeaderboardFallsBackWhenRedisIsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncPlayers(t, "alice")
	f.addMatch(t, timedMatch("a1", "alice", wednesday.Add(-time.Hour)))

	f.redis.Close()

	resp, err := f.leaderboard.GetLeaderboard(ctx, models.PeriodAllTime, 1, 20)
	if err != nil {
		t.Fatalf("leaderboard should not fail without Redis: %v", err)
	}
	assertBoard(t, resp, []ranked{{"alice", 170, 1}})
}

func TestWarmFillsEveryPeriod(t *testing.T) {
	f := newFixture(t)
	if err := f.leaderboard.Warm(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	keys := f.redis.Keys()
	for _, p := range models.Periods {
		if !containsPrefix(keys, "leaderboard:cache:"+string(p)+":") {
			t.Errorf("%s not warmed, keys=%v", p, keys)
		}
	}
}

func containsPrefix(keys []string, prefix string) bool {
	for _, k := range keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
