package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
	"scoreledger/internal/scoring"
	"scoreledger/internal/validation"
)

// MatchService accepts finished matches, scores them and credits the points
type MatchService struct {
	store     *repository.Store
	cache     *repository.LeaderboardCache
	validator *validation.Validator
	rules     scoring.Rules
	windows   *Windows
	metrics   *metrics.Metrics
}

// NewMatchService creates a new match service
func NewMatchService(
	store *repository.Store,
	cache *repository.LeaderboardCache,
	validator *validation.Validator,
	rules scoring.Rules,
	windows *Windows,
	m *metrics.Metrics,
) *MatchService {
	return &MatchService{
		store:     store,
		cache:     cache,
		validator: validator,
		rules:     rules,
		windows:   windows,
		metrics:   m,
	}
}

// AddMatch validates and stores a match for playerID. The match row and the
// points credit commit together; a duplicate match_id leaves both untouched.
func (s *MatchService) AddMatch(ctx context.Context, playerID string, req *models.AddMatchRequest) (*models.Match, error) {
	if err := s.validator.Match(req, playerID); err != nil {
		return nil, err
	}

	match := &models.Match{
		MatchID:            req.MatchID,
		PlayerID:           playerID,
		GameType:           models.GameType(req.GameType),
		GameMode:           models.GameMode(req.GameMode),
		Operation:          models.Operation(req.Operation),
		GridSize:           req.GridSize,
		PlayedAt:           req.Timestamp.UTC(),
		Status:             models.MatchStatus(req.Status),
		FinalScore:         *req.FinalScore,
		AccuracyPercentage: *req.AccuracyPercentage,
		HintsUsed:          req.HintsUsed,
		CompletionTime:     req.CompletionTime,
		RoomCode:           req.RoomCode,
		Position:           req.Position,
		TotalPlayers:       req.TotalPlayers,
	}
	match.PointsEarned = s.rules.Score(scoring.Input{
		Completed:          match.Status == models.StatusCompleted,
		Timed:              match.GameMode == models.GameModeTimed,
		Multiplayer:        match.GameType == models.GameTypeMultiplayer,
		GridSize:           match.GridSize,
		AccuracyPercentage: match.AccuracyPercentage,
		HintsUsed:          match.HintsUsed,
		CompletionTime:     match.CompletionTime,
		Position:           match.Position,
	})

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateMatch(ctx, match); err != nil {
			return err
		}
		if match.PointsEarned > 0 {
			return tx.CreditPoints(ctx, playerID, int64(match.PointsEarned))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MatchesRecorded.WithLabelValues(string(match.Status)).Inc()
	if match.PointsEarned > 0 {
		s.metrics.PointsCredited.Add(float64(match.PointsEarned))
	}

	if match.Status == models.StatusCompleted {
		periods := s.windows.PeriodsContaining(match.PlayedAt)
		if err := s.cache.BumpVersions(ctx, periods); err != nil {
			log.WithError(err).WithField("match_id", match.MatchID).Warn("Failed to invalidate leaderboard cache")
		}
	}

	log.WithFields(log.Fields{
		"player_id": playerID,
		"match_id":  match.MatchID,
		"status":    match.Status,
		"points":    match.PointsEarned,
	}).Info("Match recorded")

	return match, nil
}

// History returns one page of the player's matches, newest first
func (s *MatchService) History(ctx context.Context, playerID string, page, pageSize int) (*models.MatchHistoryResponse, error) {
	matches, total, err := s.store.ListMatches(ctx, playerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return &models.MatchHistoryResponse{
		Data:     matches,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}
