package models

import (
	"time"

	"gorm.io/gorm"

	"scoreledger/internal/common"
)

// GameType is solo or multiplayer
type GameType string

// GameMode is timed or untimed
type GameMode string

// Operation is the arithmetic the grid was built on
type Operation string

// MatchStatus is how the match ended
type MatchStatus string

const (
	GameTypeSolo        GameType = "solo"
	GameTypeMultiplayer GameType = "multiplayer"

	GameModeTimed   GameMode = "timed"
	GameModeUntimed GameMode = "untimed"

	OperationAddition    Operation = "addition"
	OperationSubtraction Operation = "subtraction"

	StatusCompleted MatchStatus = "completed"
	StatusAbandoned MatchStatus = "abandoned"
	StatusTimedOut  MatchStatus = "timed_out"
)

// Match is one finished game. Rows are append-only: PointsEarned is computed
// once when the row is created and the row is never updated afterwards.
type Match struct {
	ID                 uint        `gorm:"primarykey" json:"-"`
	MatchID            string      `gorm:"size:36;uniqueIndex;not null" json:"match_id"`
	PlayerID           string      `gorm:"size:64;not null;index" json:"player_id"`
	GameType           GameType    `gorm:"size:20;not null" json:"game_type"`
	GameMode           GameMode    `gorm:"size:20;not null" json:"game_mode"`
	Operation          Operation   `gorm:"size:20;not null" json:"operation"`
	GridSize           int         `gorm:"not null" json:"grid_size"`
	PlayedAt           time.Time   `gorm:"not null;index" json:"timestamp"`
	Status             MatchStatus `gorm:"size:20;not null;index" json:"status"`
	FinalScore         int         `gorm:"not null" json:"final_score"`
	AccuracyPercentage float64     `gorm:"not null" json:"accuracy_percentage"`
	HintsUsed          int         `gorm:"not null;default:0" json:"hints_used"`
	PointsEarned       int         `gorm:"not null;default:0;index" json:"points_earned"`
	CompletionTime     *int        `json:"completion_time"`
	RoomCode           *string     `gorm:"size:6;index" json:"room_code"`
	Position           *int        `json:"position"`
	TotalPlayers       *int        `json:"total_players"`
	CreatedAt          time.Time   `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// BeforeUpdate keeps accepted matches immutable so PointsEarned can never go stale
func (m *Match) BeforeUpdate(tx *gorm.DB) error {
	return common.ErrMatchImmutable
}

// AddMatchRequest represents the request payload for recording a finished match
type AddMatchRequest struct {
	MatchID            string     `json:"match_id" validate:"required,max=36"`
	PlayerID           string     `json:"player_id" validate:"required"`
	GameType           string     `json:"game_type" validate:"required,oneof=solo multiplayer"`
	GameMode           string     `json:"game_mode" validate:"required,oneof=timed untimed"`
	Operation          string     `json:"operation" validate:"required,oneof=addition subtraction"`
	GridSize           int        `json:"grid_size" validate:"required,gt=0"`
	Timestamp          *time.Time `json:"timestamp" validate:"required"`
	Status             string     `json:"status" validate:"required,oneof=completed abandoned timed_out"`
	FinalScore         *int       `json:"final_score" validate:"required,min=0,max=100"`
	AccuracyPercentage *float64   `json:"accuracy_percentage" validate:"required,min=0,max=100"`
	HintsUsed          int        `json:"hints_used" validate:"min=0"`
	CompletionTime     *int       `json:"completion_time" validate:"omitempty,min=0"`
	RoomCode           *string    `json:"room_code" validate:"omitempty,max=6"`
	Position           *int       `json:"position" validate:"omitempty,min=1"`
	TotalPlayers       *int       `json:"total_players" validate:"omitempty,min=1"`
}

// AddMatchResponse echoes the accepted match including its computed points
type AddMatchResponse struct {
	Detail string `json:"detail"`
	Match  *Match `json:"match"`
}

// MatchHistoryResponse is a page of a player's matches, newest first
type MatchHistoryResponse struct {
	Data     []Match `json:"data"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int64   `json:"total"`
}
