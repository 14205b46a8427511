package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"scoreledger/internal/common"
	"scoreledger/internal/config"
	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
)

// Outcome is the internal result of a referral submission. It is logged and
// counted but never returned to the client.
type Outcome string

const (
	OutcomeCredited        Outcome = "credited"
	OutcomeAlreadyReferred Outcome = "already_referred"
	OutcomeSelfReferral    Outcome = "self_referral"
	OutcomeInvalidCode     Outcome = "invalid_code"
	OutcomeLimitReached    Outcome = "limit_reached"
)

const (
	codeLength      = 8
	maxCodeAttempts = 10
)

// NormalizeCode trims and upper-cases a submitted referral code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// newReferralCode derives a short upper-case hex code from a random uuid
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength])
}

// ReferralService runs the referral reward flow and the landing page click tracking
type ReferralService struct {
	store   *repository.Store
	rewards config.Rewards
	metrics *metrics.Metrics
	now     func() time.Time
	newCode func() string
}

// NewReferralService creates a new referral service
func NewReferralService(store *repository.Store, rewards config.Rewards, m *metrics.Metrics) *ReferralService {
	return &ReferralService{
		store:   store,
		rewards: rewards,
		metrics: m,
		now:     time.Now,
		newCode: newReferralCode,
	}
}

// EnsureProfile returns the player's referral profile, allocating a unique code on first use
func (s *ReferralService) EnsureProfile(ctx context.Context, playerID string) (*models.ReferralProfile, error) {
	profile, err := s.store.GetReferralProfile(ctx, playerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.newCode()
		taken, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check referral code: %w", err)
		}
		if taken {
			continue
		}

		profile = &models.ReferralProfile{PlayerID: playerID, Code: code}
		err = s.store.CreateReferralProfile(ctx, profile)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		// Either the code was taken in between or a concurrent request created the profile.
		if existing, err := s.store.GetReferralProfile(ctx, playerID); err == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("could not allocate a referral code for %s after %d attempts", playerID, maxCodeAttempts)
}

// MyCode returns the caller's referral code and how many referrals were rewarded
func (s *ReferralService) MyCode(ctx context.Context, playerID string) (*models.ReferralCodeResponse, error) {
	profile, err := s.EnsureProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &models.ReferralCodeResponse{
		Code:          profile.Code,
		ReferralCount: profile.ReferralCount,
		ReferralLimit: s.rewards.ReferralLimit,
	}, nil
}

// Submit applies a referral code on behalf of refereeID. clientIP, when known,
// redeems the pending landing page click made with the same code.
func (s *ReferralService) Submit(ctx context.Context, refereeID, rawCode, clientIP string) (Outcome, error) {
	outcome, err := s.submit(ctx, refereeID, NormalizeCode(rawCode), clientIP)
	if err != nil {
		return "", err
	}

	s.metrics.ReferralOutcomes.WithLabelValues(string(outcome)).Inc()
	log.WithFields(log.Fields{
		"referee_id": refereeID,
		"outcome":    outcome,
	}).Info("Referral code submitted")
	return outcome, nil
}

func (s *ReferralService) submit(ctx context.Context, refereeID, code, clientIP string) (Outcome, error) {
	referee, err := s.EnsureProfile(ctx, refereeID)
	if err != nil {
		return "", err
	}
	if referee.ReferredByID != nil {
		return OutcomeAlreadyReferred, nil
	}
	if code == referee.Code {
		return OutcomeSelfReferral, nil
	}

	referrer, err := s.store.GetReferralProfileByCode(ctx, code)
	if errors.Is(err, common.ErrNotFound) {
		return OutcomeInvalidCode, nil
	}
	if err != nil {
		return "", err
	}
	if referrer.PlayerID == refereeID {
		return OutcomeSelfReferral, nil
	}

	// The relationship is recorded whether or not a reward follows.
	var referral models.Referral
	recorded := false
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		set, err := tx.SetReferredBy(ctx, refereeID, referrer.PlayerID)
		if err != nil || !set {
			return err
		}

		referral = models.Referral{
			ID:         uuid.NewString(),
			ReferrerID: referrer.PlayerID,
			RefereeID:  refereeID,
			CodeUsed:   code,
		}
		if err := tx.CreateReferral(ctx, &referral); err != nil {
			return err
		}

		if clientIP != "" {
			if _, err := tx.RedeemClick(ctx, code, clientIP, s.now()); err != nil {
				return err
			}
		}
		recorded = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("record referral: %w", err)
	}
	if !recorded {
		// A concurrent submission for this referee won the race.
		return OutcomeAlreadyReferred, nil
	}

	credited := false
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.LockReferralProfile(ctx, referrer.PlayerID); err != nil {
			return err
		}
		applied, err := tx.IncrementReferralCount(ctx, referrer.PlayerID, s.rewards.ReferralLimit)
		if err != nil || !applied {
			return err
		}

		if err := tx.CreditCoins(ctx, referrer.PlayerID, s.rewards.ReferrerBonus); err != nil {
			return err
		}
		if err := tx.CreditCoins(ctx, refereeID, s.rewards.RefereeBonus); err != nil {
			return err
		}
		if err := tx.MarkReferralRewarded(ctx, referral.ID, s.now()); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reward referral: %w", err)
	}

	if credited {
		return OutcomeCredited, nil
	}
	return OutcomeLimitReached, nil
}

// Lookup resolves a code for the public download page
func (s *ReferralService) Lookup(ctx context.Context, rawCode string) (*models.ReferralLookupResponse, error) {
	code := NormalizeCode(rawCode)
	if code == "" {
		return &models.ReferralLookupResponse{}, nil
	}

	resp := &models.ReferralLookupResponse{ReferralCode: code}
	profile, err := s.store.GetReferralProfileByCode(ctx, code)
	if errors.Is(err, common.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	resp.ValidCode = true
	player, err := s.store.GetPlayer(ctx, profile.PlayerID)
	switch {
	case err == nil:
		resp.ReferrerUsername = player.Username
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}
	return resp, nil
}

// RecordClick stores a landing page click, skipping a repeat of a pending one
func (s *ReferralService) RecordClick(ctx context.Context, rawCode, ip string) (bool, error) {
	return s.store.RecordClick(ctx, NormalizeCode(rawCode), ip)
}

// PurgeStaleClicks removes pending clicks older than retention
func (s *ReferralService) PurgeStaleClicks(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.PurgeStaleClicks(ctx, s.now().Add(-retention))
}
