package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

func TestAddMatchCreditsPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := f.addMatch(t, timedMatch("m-1", "p1", wednesday.Add(-time.Hour)))
	if m.PointsEarned != 170 {
		t.Fatalf("expected 170 points, got %d", m.PointsEarned)
	}

	points, err := f.wallet.GetPoints(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if points.TotalEarned != 170 || points.AvailablePoints != 170 {
		t.Fatalf("unexpected points %+v", points)
	}
}

func TestAddMatchDuplicateLeavesPointsUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addMatch(t, timedMatch("m-1", "p1", wednesday))

	_, err := f.matches.AddMatch(ctx, "p1", timedMatch("m-1", "p1", wednesday))
	if !errors.Is(err, common.ErrDuplicateMatch) {
		t.Fatalf("expected ErrDuplicateMatch, got %v", err)
	}
	// The id is global: another player cannot reuse it either.
	_, err = f.matches.AddMatch(ctx, "p2", timedMatch("m-1", "p2", wednesday))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected conflict for another player, got %v", err)
	}

	points, _ := f.wallet.GetPoints(ctx, "p1")
	if points.TotalEarned != 170 {
		t.Fatalf("duplicate changed points: %+v", points)
	}
	other, _ := f.wallet.GetPoints(ctx, "p2")
	if other.TotalEarned != 0 {
		t.Fatalf("rejected match credited p2: %+v", other)
	}
}

func TestAddMatchUnfinishedScoresZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := timedMatch("m-1", "p1", wednesday)
	req.Status = "timed_out"
	req.CompletionTime = nil

	m := f.addMatch(t, req)
	if m.PointsEarned != 0 {
		t.Fatalf("expected 0 points, got %d", m.PointsEarned)
	}
	points, _ := f.wallet.GetPoints(ctx, "p1")
	if points.TotalEarned != 0 {
		t.Fatalf("unexpected credit %+v", points)
	}

	versions, _ := f.cache.GetVersions(ctx)
	for p, v := range versions {
		if v != 0 {
			t.Errorf("%s version bumped by an unfinished match", p)
		}
	}
}

func TestAddMatchRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := timedMatch("m-1", "p1", wednesday)
	req.CompletionTime = nil

	_, err := f.matches.AddMatch(ctx, "p1", req)
	verr, ok := common.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["completion_time"]; !ok {
		t.Fatalf("expected completion_time error, got %v", verr.Fields)
	}

	// Spoofing another player is a validation error too.
	_, err = f.matches.AddMatch(ctx, "intruder", timedMatch("m-2", "p1", wednesday))
	if _, ok := common.AsValidationError(err); !ok {
		t.Fatalf("expected validation error for spoofed player, got %v", err)
	}

	_, total, _ := f.store.ListMatches(ctx, "p1", 0, 10)
	if total != 0 {
		t.Fatalf("invalid matches were stored: %d", total)
	}
}

func TestAddMatchBumpsContainingWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addMatch(t, timedMatch("today", "p1", wednesday.Add(-2*time.Hour)))
	f.addMatch(t, timedMatch("old", "p1", time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)))

	versions, err := f.cache.GetVersions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[models.Period]int64{
		models.PeriodToday:     1,
		models.PeriodThisWeek:  1,
		models.PeriodThisMonth: 1,
		models.PeriodAllTime:   2,
	}
	for p, v := range want {
		if versions[p] != v {
			t.Errorf("%s: expected version %d, got %d", p, v, versions[p])
		}
	}
}

func TestAddMatchSurvivesRedisOutage(t *testing.T) {
	f := newFixture(t)
	f.redis.Close()

	m := f.addMatch(t, timedMatch("m-1", "p1", wednesday))
	if m.PointsEarned != 170 {
		t.Fatalf("expected 170, got %d", m.PointsEarned)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addMatch(t, untimedMatch("a", "p1", wednesday.Add(-3*time.Hour), 80))
	f.addMatch(t, untimedMatch("b", "p1", wednesday.Add(-1*time.Hour), 80))
	f.addMatch(t, untimedMatch("c", "p1", wednesday.Add(-2*time.Hour), 80))
	f.addMatch(t, untimedMatch("x", "p2", wednesday, 80))

	resp, err := f.matches.History(ctx, "p1", 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 {
		t.Fatalf("unexpected page %+v", resp)
	}
	if resp.Data[0].MatchID != "b" || resp.Data[1].MatchID != "c" {
		t.Fatalf("unexpected order %s, %s", resp.Data[0].MatchID, resp.Data[1].MatchID)
	}
}
