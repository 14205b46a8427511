package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"scoreledger/internal/config"
	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
	"scoreledger/internal/scoring"
	"scoreledger/internal/testhelper"
	"scoreledger/internal/validation"
)

// wednesday is the fixed "now" of the service tests: Wed 2025-03-12 15:00 UTC
var wednesday = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

var testRewards = config.Rewards{
	PointsPerCoin: 10,
	ReferralLimit: 3,
	ReferrerBonus: 50,
	RefereeBonus:  25,
}

type fixture struct {
	store       *repository.Store
	cache       *repository.LeaderboardCache
	redis       *miniredis.Miniredis
	metrics     *metrics.Metrics
	windows     *Windows
	matches     *MatchService
	leaderboard *LeaderboardService
	wallet      *WalletService
	referral    *ReferralService
	players     *PlayerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testhelper.NewStore(t)
	client, mr := testhelper.NewRedis(t)
	cache := repository.NewLeaderboardCache(client, time.Minute)
	m := metrics.New()
	windows := NewWindows(time.UTC, testhelper.FixedClock(wednesday))

	referral := NewReferralService(store, testRewards, m)
	referral.now = testhelper.FixedClock(wednesday)

	return &fixture{
		store:       store,
		cache:       cache,
		redis:       mr,
		metrics:     m,
		windows:     windows,
		matches:     NewMatchService(store, cache, validation.New(), scoring.DefaultRules(), windows, m),
		leaderboard: NewLeaderboardService(store, cache, windows, m),
		wallet:      NewWalletService(store, testRewards, m),
		referral:    referral,
		players:     NewPlayerService(store),
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// timedMatch builds a valid solo timed match worth 170 points (grid 4, 100% accuracy, 90s)
func timedMatch(id, player string, at time.Time) *models.AddMatchRequest {
	return &models.AddMatchRequest{
		MatchID:            id,
		PlayerID:           player,
		GameType:           "solo",
		GameMode:           "timed",
		Operation:          "addition",
		GridSize:           4,
		Timestamp:          &at,
		Status:             "completed",
		FinalScore:         intPtr(100),
		AccuracyPercentage: floatPtr(100),
		CompletionTime:     intPtr(90),
	}
}

// untimedMatch builds a valid solo untimed match worth 100 + accuracy bonus points
func untimedMatch(id, player string, at time.Time, accuracy float64) *models.AddMatchRequest {
	return &models.AddMatchRequest{
		MatchID:            id,
		PlayerID:           player,
		GameType:           "solo",
		GameMode:           "untimed",
		Operation:          "subtraction",
		GridSize:           5,
		Timestamp:          &at,
		Status:             "completed",
		FinalScore:         intPtr(70),
		AccuracyPercentage: floatPtr(accuracy),
	}
}

func (f *fixture) syncPlayers(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := f.players.Sync(context.Background(), &models.PlayerSyncRequest{
			ID:       id,
			Username: id + "_name",
			Email:    fmt.Sprintf("%s@example.com", id),
		}); err != nil {
			t.Fatalf("sync %s: %v", id, err)
		}
	}
}

func (f *fixture) addMatch(t *testing.T, req *models.AddMatchRequest) *models.Match {
	t.Helper()
	m, err := f.matches.AddMatch(context.Background(), req.PlayerID, req)
	if err != nil {
		t.Fatalf("add match %s: %v", req.MatchID, err)
	}
	return m
}
