package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/common"
	"scoreledger/internal/config"
	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
)

// WalletService exposes coin balances, direct adjustments and point redemption
type WalletService struct {
	store   *repository.Store
	rewards config.Rewards
	metrics *metrics.Metrics
}

// NewWalletService creates a new wallet service
func NewWalletService(store *repository.Store, rewards config.Rewards, m *metrics.Metrics) *WalletService {
	return &WalletService{
		store:   store,
		rewards: rewards,
		metrics: m,
	}
}

// GetWallet returns the player's coin balances
func (s *WalletService) GetWallet(ctx context.Context, playerID string) (*models.WalletResponse, error) {
	w, err := s.store.GetOrCreateWallet(ctx, playerID)
	if err != nil {
		return nil, err
	}
	resp := models.NewWalletResponse(w)
	return &resp, nil
}

// Adjust increments or decrements the wallet and returns the balances written by this call
func (s *WalletService) Adjust(ctx context.Context, playerID string, amount int64, direction string) (*models.WalletResponse, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var resp models.WalletResponse
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		switch direction {
		case models.DirectionIncrement:
			if err := tx.CreditCoins(ctx, playerID, amount); err != nil {
				return err
			}
		case models.DirectionDecrement:
			if err := tx.DebitCoins(ctx, playerID, amount); err != nil {
				return err
			}
		default:
			return common.FieldError("direction", "must be one of: increment, decrement")
		}

		w, err := tx.GetOrCreateWallet(ctx, playerID)
		if err != nil {
			return err
		}
		resp = models.NewWalletResponse(w)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"player_id": playerID,
		"direction": direction,
		"amount":    amount,
	}).Info("Wallet adjusted")
	return &resp, nil
}

// Redeem converts points into coins at the configured rate
func (s *WalletService) Redeem(ctx context.Context, playerID string, coins int64) (*models.RedeemResult, error) {
	result, err := s.store.RedeemPoints(ctx, playerID, coins, s.rewards.PointsPerCoin)
	if err != nil {
		return nil, err
	}

	s.metrics.CoinsRedeemed.Add(float64(result.CoinsRedeemed))
	log.WithFields(log.Fields{
		"player_id":    playerID,
		"coins":        result.CoinsRedeemed,
		"points_spent": result.PointsSpent,
	}).Info("Points redeemed")
	return result, nil
}

// GetPoints returns the player's points account
func (s *WalletService) GetPoints(ctx context.Context, playerID string) (*models.PointsResponse, error) {
	p, err := s.store.GetOrCreatePoints(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}
	return &models.PointsResponse{
		TotalEarned:     p.TotalEarned,
		PointsUsed:      p.PointsUsed,
		AvailablePoints: p.AvailablePoints(),
		PointsPerCoin:   s.rewards.PointsPerCoin,
	}, nil
}
