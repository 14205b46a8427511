package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// Balance mutations never read-modify-write in Go: every change is a
// server-side delta, and debits are guarded in the WHERE clause so two
// concurrent debits can never both pass the same balance check.

func (s *Store) ensureWallet(ctx context.Context, playerID string) error {
	w := models.Wallet{PlayerID: playerID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoNothing: true,
	}).Create(&w).Error
}

func (s *Store) ensurePoints(ctx context.Context, playerID string) error {
	p := models.PointsAccount{PlayerID: playerID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoNothing: true,
	}).Create(&p).Error
}

// GetOrCreateWallet returns the player's wallet, creating an empty one on first access
func (s *Store) GetOrCreateWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	if err := s.ensureWallet(ctx, playerID); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	var w models.Wallet
	if err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&w).Error; err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	return &w, nil
}

// GetOrCreatePoints returns the player's points account, creating an empty one on first access
func (s *Store) GetOrCreatePoints(ctx context.Context, playerID string) (*models.PointsAccount, error) {
	if err := s.ensurePoints(ctx, playerID); err != nil {
		return nil, fmt.Errorf("create points account: %w", err)
	}
	var p models.PointsAccount
	if err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&p).Error; err != nil {
		return nil, fmt.Errorf("load points account: %w", err)
	}
	return &p, nil
}

// CreditCoins adds amount to the wallet's total coins
func (s *Store) CreditCoins(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.ensureWallet(ctx, playerID); err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	err := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("player_id = ?", playerID).
		Update("total_coins", gorm.Expr("total_coins + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("credit coins: %w", err)
	}
	return nil
}

// DebitCoins moves amount from available to used coins, failing with
// ErrInsufficientBalance when fewer than amount coins are available
func (s *Store) DebitCoins(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.ensureWallet(ctx, playerID); err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("player_id = ? AND total_coins - used_coins >= ?", playerID, amount).
		Update("used_coins", gorm.Expr("used_coins + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit coins: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrInsufficientBalance
	}
	return nil
}

// CreditPoints adds amount to the player's lifetime earned points
func (s *Store) CreditPoints(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.ensurePoints(ctx, playerID); err != nil {
		return fmt.Errorf("create points account: %w", err)
	}
	err := s.db.WithContext(ctx).Model(&models.PointsAccount{}).
		Where("player_id = ?", playerID).
		Update("total_earned", gorm.Expr("total_earned + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	return nil
}

// RedeemPoints converts coins*pointsPerCoin points into coins atomically.
// Rows are locked points first, wallet second; every caller uses this order.
func (s *Store) RedeemPoints(ctx context.Context, playerID string, coins, pointsPerCoin int64) (*models.RedeemResult, error) {
	if coins <= 0 || pointsPerCoin <= 0 || coins > math.MaxInt64/pointsPerCoin {
		return nil, common.ErrInvalidAmount
	}
	cost := coins * pointsPerCoin

	var result models.RedeemResult
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.ensurePoints(ctx, playerID); err != nil {
			return err
		}
		if err := tx.ensureWallet(ctx, playerID); err != nil {
			return err
		}

		var points models.PointsAccount
		if err := tx.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("player_id = ?", playerID).First(&points).Error; err != nil {
			return fmt.Errorf("lock points account: %w", err)
		}
		var wallet models.Wallet
		if err := tx.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("player_id = ?", playerID).First(&wallet).Error; err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		if points.AvailablePoints() < cost {
			return common.ErrInsufficientPoints
		}

		res := tx.db.WithContext(ctx).Model(&models.PointsAccount{}).
			Where("player_id = ? AND total_earned - points_used >= ?", playerID, cost).
			Update("points_used", gorm.Expr("points_used + ?", cost))
		if res.Error != nil {
			return fmt.Errorf("spend points: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return common.ErrInsufficientPoints
		}

		if err := tx.CreditCoins(ctx, playerID, coins); err != nil {
			return err
		}

		// Re-read inside the transaction so both balances come from one snapshot.
		var after models.PointsAccount
		if err := tx.db.WithContext(ctx).Where("player_id = ?", playerID).First(&after).Error; err != nil {
			return err
		}
		var afterWallet models.Wallet
		if err := tx.db.WithContext(ctx).Where("player_id = ?", playerID).First(&afterWallet).Error; err != nil {
			return err
		}

		result = models.RedeemResult{
			CoinsRedeemed:   coins,
			PointsSpent:     cost,
			AvailablePoints: after.AvailablePoints(),
			AvailableCoins:  afterWallet.AvailableCoins(),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInsufficientPoints) || errors.Is(err, common.ErrInvalidAmount) {
			return nil, err
		}
		return nil, fmt.Errorf("redeem points: %w", err)
	}
	return &result, nil
}
