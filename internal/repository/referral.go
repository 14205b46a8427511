package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// GetReferralProfile returns the player's referral profile or common.ErrNotFound
func (s *Store) GetReferralProfile(ctx context.Context, playerID string) (*models.ReferralProfile, error) {
	return s.findProfile(ctx, false, "player_id = ?", playerID)
}

// GetReferralProfileByCode resolves an (upper-case) referral code
func (s *Store) GetReferralProfileByCode(ctx context.Context, code string) (*models.ReferralProfile, error) {
	return s.findProfile(ctx, false, "code = ?", code)
}

// LockReferralProfile loads the profile with a row lock held until the transaction ends
func (s *Store) LockReferralProfile(ctx context.Context, playerID string) (*models.ReferralProfile, error) {
	return s.findProfile(ctx, true, "player_id = ?", playerID)
}

func (s *Store) findProfile(ctx context.Context, lock bool, query string, arg interface{}) (*models.ReferralProfile, error) {
	q := s.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var profile models.ReferralProfile
	if err := q.Where(query, arg).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("load referral profile: %w", err)
	}
	return &profile, nil
}

// CreateReferralProfile inserts a profile; a taken player id or code yields common.ErrConflict
func (s *Store) CreateReferralProfile(ctx context.Context, profile *models.ReferralProfile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isDuplicateKey(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("create referral profile: %w", err)
	}
	return nil
}

// CodeExists reports whether a referral code is already assigned
func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReferralProfile{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// SetReferredBy records the referrer on the referee's profile only if none is set yet.
// It reports whether this call set it.
func (s *Store) SetReferredBy(ctx context.Context, refereeID, referrerID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ReferralProfile{}).
		Where("player_id = ? AND referred_by_id IS NULL", refereeID).
		Update("referred_by_id", referrerID)
	if res.Error != nil {
		return false, fmt.Errorf("set referred_by: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CreateReferral records the relationship; a referee can appear only once
func (s *Store) CreateReferral(ctx context.Context, referral *models.Referral) error {
	if err := s.db.WithContext(ctx).Create(referral).Error; err != nil {
		if isDuplicateKey(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

// IncrementReferralCount bumps the referrer's credited count if it is still below limit.
// It reports whether the increment happened.
func (s *Store) IncrementReferralCount(ctx context.Context, referrerID string, limit int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ReferralProfile{}).
		Where("player_id = ? AND referral_count < ?", referrerID, limit).
		Update("referral_count", gorm.Expr("referral_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment referral count: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkReferralRewarded flags the relationship as paid out
func (s *Store) MarkReferralRewarded(ctx context.Context, referralID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", referralID).
		Updates(map[string]interface{}{"rewarded": true, "rewarded_at": at.UTC()}).Error
}

// GetReferralByReferee returns the relationship recorded for a referee
func (s *Store) GetReferralByReferee(ctx context.Context, refereeID string) (*models.Referral, error) {
	var referral models.Referral
	if err := s.db.WithContext(ctx).Where("referee_id = ?", refereeID).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &referral, nil
}

// RecordClick stores a landing page click unless the same code and IP already
// have an unredeemed click. It reports whether a row was created.
func (s *Store) RecordClick(ctx context.Context, code, ip string) (bool, error) {
	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.ReferralClick{}).
		Where("code = ? AND ip_address = ? AND redeemed_at IS NULL", code, ip).
		Count(&pending).Error; err != nil {
		return false, fmt.Errorf("check click: %w", err)
	}
	if pending > 0 {
		return false, nil
	}

	click := models.ReferralClick{Code: code, IPAddress: ip}
	if err := s.db.WithContext(ctx).Create(&click).Error; err != nil {
		return false, fmt.Errorf("record click: %w", err)
	}
	return true, nil
}

// RedeemClick marks the pending click from ip with code as redeemed
func (s *Store) RedeemClick(ctx context.Context, code, ip string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.ReferralClick{}).
		Where("code = ? AND ip_address = ? AND redeemed_at IS NULL", code, ip).
		Update("redeemed_at", at.UTC())
	return res.RowsAffected, res.Error
}

// PurgeStaleClicks deletes unredeemed clicks created before cutoff
func (s *Store) PurgeStaleClicks(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("redeemed_at IS NULL AND created_at < ?", cutoff.UTC()).
		Delete(&models.ReferralClick{})
	return res.RowsAffected, res.Error
}
