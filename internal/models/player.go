package models

import (
	"time"
)

// Player is the display identity of a player, pushed by the account service.
// It is only used to enrich leaderboard rows.
type Player struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Username  string    `gorm:"size:150;not null;index" json:"username"`
	Email     string    `gorm:"size:254" json:"email"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// PlayerSyncRequest represents the payload sent by the account service
type PlayerSyncRequest struct {
	ID        string  `json:"id" validate:"required,max=64"`
	Username  string  `json:"username" validate:"required,min=1,max=150"`
	Email     string  `json:"email" validate:"omitempty,email,max=254"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
