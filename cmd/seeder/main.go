package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"scoreledger/internal/config"
	"scoreledger/internal/jobs"
	"scoreledger/internal/logging"
	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
)

const (
	TotalPlayers     = 1000
	BatchSize        = 500
	MatchesPerPlayer = 12
	// Matches are spread over this many days before now so every leaderboard window has data
	HistoryDays    = 45
	Concurrency    = 8
	UsernamePrefix = "player_"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if _, err := logging.Setup(cfg.App, config.LogConfig{}); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	log.Info("Starting seeder")

	ctx := context.Background()

	db, err := repository.ConnectPostgres(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	redisClient, err := repository.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	store := repository.NewStore(db)
	cache := repository.NewLeaderboardCache(redisClient, cfg.Leaderboard.CacheTTL)
	defer store.Close()
	defer cache.Close()

	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	windows := service.NewWindows(cfg.Location(), time.Now)
	matches := service.NewMatchService(store, cache, validation.New(), cfg.ScoringRules(), windows, metrics.New())

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	players := generatePlayers(TotalPlayers)
	if err := seedPlayers(ctx, store, players); err != nil {
		log.Fatalf("Failed to seed players: %v", err)
	}

	requests := generateMatches(rng, players, time.Now().UTC())
	if err := seedMatches(ctx, matches, requests); err != nil {
		log.Fatalf("Failed to seed matches: %v", err)
	}

	count, err := store.CountPlayers(ctx)
	if err != nil {
		log.Fatalf("Failed to verify players: %v", err)
	}

	board, err := service.NewLeaderboardService(store, cache, windows, metrics.New()).
		GetLeaderboard(ctx, models.PeriodAllTime, 1, 10)
	if err != nil {
		log.Fatalf("Failed to read leaderboard: %v", err)
	}

	log.WithFields(log.Fields{"players": count, "matches": len(requests)}).Info("Seeding completed")
	for _, entry := range board.Data {
		log.Infof("   %d. %s - %d points (%d games)", entry.Rank, entry.Username, entry.TotalPoints, entry.GamesPlayed)
	}
}

// generatePlayers creates display identities for synthetic players
func generatePlayers(count int) []models.Player {
	players := make([]models.Player, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s%d", UsernamePrefix, i+1)
		players[i] = models.Player{
			ID:       fmt.Sprintf("seed-%05d", i+1),
			Username: name,
			Email:    name + "@example.com",
		}
	}
	return players
}

// generateMatches builds backdated match requests. It runs before seeding
// starts because rand.Rand is not safe for concurrent use.
func generateMatches(rng *rand.Rand, players []models.Player, now time.Time) []*models.AddMatchRequest {
	out := make([]*models.AddMatchRequest, 0, len(players)*MatchesPerPlayer)
	for _, p := range players {
		for i := 0; i < MatchesPerPlayer; i++ {
			ago := time.Duration(rng.Int63n(int64(HistoryDays * 24 * time.Hour)))
			out = append(out, jobs.RandomMatch(rng, p.ID, now.Add(-ago).Truncate(time.Second)))
		}
	}
	return out
}

// seedPlayers inserts players into PostgreSQL in batches
func seedPlayers(ctx context.Context, store *repository.Store, players []models.Player) error {
	startTime := time.Now()

	if err := store.BulkInsertPlayers(ctx, players, BatchSize); err != nil {
		return fmt.Errorf("bulk insert failed: %w", err)
	}

	duration := time.Since(startTime)
	log.Infof("Inserted %d players in %v (%.0f players/sec)",
		len(players), duration, float64(len(players))/duration.Seconds())
	return nil
}

// seedMatches records matches through the match service so points and
// wallets are credited exactly as for live traffic
func seedMatches(ctx context.Context, matches *service.MatchService, requests []*models.AddMatchRequest) error {
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Concurrency)
	for _, req := range requests {
		req := req
		g.Go(func() error {
			if _, err := matches.AddMatch(gctx, req.PlayerID, req); err != nil {
				return fmt.Errorf("match %s: %w", req.MatchID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(startTime)
	log.Infof("Recorded %d matches in %v (%.0f matches/sec)",
		len(requests), duration, float64(len(requests))/duration.Seconds())
	return nil
}
