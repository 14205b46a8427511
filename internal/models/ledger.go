package models

import (
	"time"
)

// Wallet holds a player's coins. Available coins are always TotalCoins - UsedCoins
// and are never stored separately.
type Wallet struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	PlayerID   string    `gorm:"size:64;uniqueIndex;not null" json:"player_id"`
	TotalCoins int64     `gorm:"not null;default:0" json:"total_coins"`
	UsedCoins  int64     `gorm:"not null;default:0" json:"used_coins"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}

// AvailableCoins returns the spendable balance
func (w Wallet) AvailableCoins() int64 {
	return w.TotalCoins - w.UsedCoins
}

// PointsAccount holds a player's game points
type PointsAccount struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	PlayerID    string    `gorm:"size:64;uniqueIndex;not null" json:"player_id"`
	TotalEarned int64     `gorm:"not null;default:0" json:"total_earned"`
	PointsUsed  int64     `gorm:"not null;default:0" json:"points_used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PointsAccount) TableName() string {
	return "points_accounts"
}

// AvailablePoints returns the redeemable balance
func (p PointsAccount) AvailablePoints() int64 {
	return p.TotalEarned - p.PointsUsed
}

// Adjustment directions
const (
	DirectionIncrement = "increment"
	DirectionDecrement = "decrement"
)

// WalletResponse represents the wallet as shown to its owner
type WalletResponse struct {
	TotalCoins     int64 `json:"total_coins"`
	UsedCoins      int64 `json:"used_coins"`
	AvailableCoins int64 `json:"available_coins"`
}

// NewWalletResponse builds the response from a wallet row
func NewWalletResponse(w *Wallet) WalletResponse {
	return WalletResponse{
		TotalCoins:     w.TotalCoins,
		UsedCoins:      w.UsedCoins,
		AvailableCoins: w.AvailableCoins(),
	}
}

// PointsResponse represents the points account as shown to its owner
type PointsResponse struct {
	TotalEarned     int64 `json:"total_earned"`
	PointsUsed      int64 `json:"points_used"`
	AvailablePoints int64 `json:"available_points"`
	PointsPerCoin   int64 `json:"points_per_coin"`
}

// WalletAdjustRequest represents a direct coin increment or decrement
type WalletAdjustRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Direction string `json:"direction" validate:"required,oneof=increment decrement"`
}

// RedeemRequest asks to convert points into Coins coins
type RedeemRequest struct {
	Coins int64 `json:"coins" validate:"required,gt=0"`
}

// RedeemResult is the state of both balances right after a redemption
type RedeemResult struct {
	CoinsRedeemed   int64 `json:"coins_redeemed"`
	PointsSpent     int64 `json:"points_spent"`
	AvailablePoints int64 `json:"available_points"`
	AvailableCoins  int64 `json:"available_coins"`
}
