package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/models"
	"scoreledger/internal/repository"
)

// PlayerService keeps the display identities pushed by the account service
type PlayerService struct {
	store *repository.Store
}

// NewPlayerService creates a new player service
func NewPlayerService(store *repository.Store) *PlayerService {
	return &PlayerService{store: store}
}

// Sync upserts a player's display identity
func (s *PlayerService) Sync(ctx context.Context, req *models.PlayerSyncRequest) (*models.Player, error) {
	player := &models.Player{
		ID:        req.ID,
		Username:  req.Username,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	}
	if err := s.store.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}
	log.WithField("player_id", player.ID).Debug("Player identity synced")
	return player, nil
}

// PlayerIDs returns up to limit known player ids
func (s *PlayerService) PlayerIDs(ctx context.Context, limit int) ([]string, error) {
	return s.store.ListPlayerIDs(ctx, limit)
}
