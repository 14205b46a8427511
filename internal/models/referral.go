package models

import (
	"time"
)

// ReferralProfile is a player's own referral code plus who referred them
type ReferralProfile struct {
	ID           uint    `gorm:"primarykey" json:"-"`
	PlayerID     string  `gorm:"size:64;uniqueIndex;not null" json:"player_id"`
	Code         string  `gorm:"size:16;uniqueIndex;not null" json:"code"`
	ReferredByID *string `gorm:"size:64;index" json:"referred_by_id"`

	// ReferralCount is the number of referrals this player has been rewarded for.
	ReferralCount int       `gorm:"not null;default:0" json:"referral_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ReferralProfile) TableName() string {
	return "referral_profiles"
}

// Referral records a referee -> referrer relationship, rewarded or not
type Referral struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	ReferrerID string     `gorm:"size:64;index;not null" json:"referrer_id"`
	RefereeID  string     `gorm:"size:64;uniqueIndex;not null" json:"referee_id"`
	CodeUsed   string     `gorm:"size:16;not null" json:"code_used"`
	Rewarded   bool       `gorm:"not null;default:false" json:"rewarded"`
	RewardedAt *time.Time `json:"rewarded_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Referral) TableName() string {
	return "referrals"
}

// ReferralClick is a landing-page visit with a referral code, kept until the
// visitor signs up and submits the code or the row expires
type ReferralClick struct {
	ID         uint       `gorm:"primarykey" json:"-"`
	Code       string     `gorm:"size:16;not null;index:idx_click_code_ip" json:"code"`
	IPAddress  string     `gorm:"size:45;not null;index:idx_click_code_ip" json:"ip_address"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ReferralClick) TableName() string {
	return "referral_clicks"
}

// ReferralSubmitRequest carries the code a new player was invited with
type ReferralSubmitRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

// ReferralCodeResponse shows a player their own code
type ReferralCodeResponse struct {
	Code          string `json:"code"`
	ReferralCount int    `json:"referral_count"`
	ReferralLimit int    `json:"referral_limit"`
}

// ReferralLookupResponse is shown on the public download page
type ReferralLookupResponse struct {
	ReferralCode     string `json:"referral_code,omitempty"`
	ValidCode        bool   `json:"valid_code"`
	ReferrerUsername string `json:"referrer_username,omitempty"`
}

// ReferralClickRequest is posted by the download page when a store button is pressed
type ReferralClickRequest struct {
	RefCode string `json:"refcode" validate:"required,max=16"`
	Store   string `json:"store"`
}
