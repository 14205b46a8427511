package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// LeaderboardRow is one aggregated player line before enrichment
type LeaderboardRow struct {
	PlayerID    string
	TotalPoints int64
	GamesPlayed int64
}

// CreateMatch inserts an accepted match. A match_id that was already recorded,
// by this player or any other, yields common.ErrDuplicateMatch.
func (s *Store) CreateMatch(ctx context.Context, match *models.Match) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("match_id = ?", match.MatchID).Count(&existing).Error; err != nil {
		return fmt.Errorf("check match_id: %w", err)
	}
	if existing > 0 {
		return common.ErrDuplicateMatch
	}

	if err := s.db.WithContext(ctx).Create(match).Error; err != nil {
		// Lost the race against a concurrent insert of the same match_id.
		if isDuplicateKey(err) {
			return common.ErrDuplicateMatch
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// ListMatches returns a page of the player's matches, newest first, and the total count
func (s *Store) ListMatches(ctx context.Context, playerID string, offset, limit int) ([]models.Match, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("player_id = ?", playerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	matches := make([]models.Match, 0, limit)
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("played_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	return matches, total, nil
}

// completedSince scopes a fresh query to completed matches played at or after since (nil = all time)
func (s *Store) completedSince(ctx context.Context, since *time.Time) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Match{}).Where("status = ?", models.StatusCompleted)
	if since != nil {
		q = q.Where("played_at >= ?", since.UTC())
	}
	return q
}

// leaderboardScan carries the ranked player count computed over the same
// grouped rows as the page
type leaderboardScan struct {
	PlayerID      string
	TotalPoints   int64
	GamesPlayed   int64
	RankedPlayers int64
}

// LeaderboardPage aggregates completed matches per player and returns one page
// ordered by total points (ties broken by player id) plus the number of ranked players.
// The page and the total come from one statement, so they always agree.
func (s *Store) LeaderboardPage(ctx context.Context, since *time.Time, offset, limit int) ([]LeaderboardRow, int64, error) {
	var scanned []leaderboardScan
	err := s.completedSince(ctx, since).
		Select("player_id, SUM(points_earned) AS total_points, COUNT(*) AS games_played, COUNT(*) OVER () AS ranked_players").
		Group("player_id").
		Order("total_points DESC").Order("player_id ASC").
		Offset(offset).Limit(limit).
		Scan(&scanned).Error
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate leaderboard: %w", err)
	}

	rows := make([]LeaderboardRow, len(scanned))
	for i, r := range scanned {
		rows[i] = LeaderboardRow{PlayerID: r.PlayerID, TotalPoints: r.TotalPoints, GamesPlayed: r.GamesPlayed}
	}
	if len(scanned) > 0 {
		return rows, scanned[0].RankedPlayers, nil
	}

	// A page past the end has no row to carry the count.
	var total int64
	if offset > 0 {
		if err := s.completedSince(ctx, since).Distinct("player_id").Count(&total).Error; err != nil {
			return nil, 0, fmt.Errorf("count ranked players: %w", err)
		}
	}
	return rows, total, nil
}
