package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
)

// LeaderboardService serves time-windowed rankings, cached in Redis
type LeaderboardService struct {
	store   *repository.Store
	cache   *repository.LeaderboardCache
	windows *Windows
	metrics *metrics.Metrics
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	store *repository.Store,
	cache *repository.LeaderboardCache,
	windows *Windows,
	m *metrics.Metrics,
) *LeaderboardService {
	return &LeaderboardService{
		store:   store,
		cache:   cache,
		windows: windows,
		metrics: m,
	}
}

// GetLeaderboard returns one page of the ranking for period.
// page and pageSize must already be validated (page >= 1, 1 <= pageSize <= max).
// Redis problems are logged and the page is computed from Postgres instead.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, period models.Period, page, pageSize int) (*models.LeaderboardResponse, error) {
	start := s.windows.Start(period)

	key := ""
	version, err := s.cache.GetVersion(ctx, period)
	if err != nil {
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		log.WithError(err).Warn("Leaderboard cache unavailable, reading from database")
	} else {
		key = repository.PageKey(period, start, version, page, pageSize)
		cached, hit, err := s.cache.GetPage(ctx, key)
		switch {
		case err != nil:
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			log.WithError(err).WithField("key", key).Warn("Failed to read cached leaderboard page")
		case hit:
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	resp, err := s.compute(ctx, period, start, page, pageSize)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.SetPage(ctx, key, resp); err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to cache leaderboard page")
		}
	}
	return resp, nil
}

func (s *LeaderboardService) compute(ctx context.Context, period models.Period, start *time.Time, page, pageSize int) (*models.LeaderboardResponse, error) {
	offset := (page - 1) * pageSize

	rows, total, err := s.store.LeaderboardPage(ctx, start, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.PlayerID
	}
	players, err := s.store.GetPlayersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		player, ok := players[row.PlayerID]
		if !ok {
			// Players without a synced identity are skipped; ranks are not renumbered.
			log.WithField("player_id", row.PlayerID).Debug("Dropping leaderboard entry without player record")
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:        offset + i + 1,
			UserID:      row.PlayerID,
			Username:    player.Username,
			Email:       player.Email,
			Avatar:      player.AvatarURL,
			TotalPoints: row.TotalPoints,
			GamesPlayed: row.GamesPlayed,
		})
	}

	return &models.LeaderboardResponse{
		Period:      period,
		WindowStart: start,
		Data:        entries,
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
	}, nil
}

// Warm renders the first page of every period so the next reader hits the cache
func (s *LeaderboardService) Warm(ctx context.Context, pageSize int) error {
	for _, p := range models.Periods {
		if _, err := s.GetLeaderboard(ctx, p, 1, pageSize); err != nil {
			return fmt.Errorf("warm %s: %w", p, err)
		}
	}
	return nil
}

// Versions returns the cache version of every period
func (s *LeaderboardService) Versions(ctx context.Context) (map[models.Period]int64, error) {
	return s.cache.GetVersions(ctx)
}

// HealthCheck checks the health of both Redis and PostgreSQL
func (s *LeaderboardService) HealthCheck(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}

	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("PostgreSQL health check failed: %w", err)
	}

	return nil
}
