package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// LeaderboardWarmer renders the first page of each leaderboard period
type LeaderboardWarmer interface {
	Warm(ctx context.Context, pageSize int) error
}

// ClickPurger deletes referral clicks that were never redeemed
type ClickPurger interface {
	PurgeStaleClicks(ctx context.Context, retention time.Duration) (int64, error)
}

// SchedulerConfig holds the maintenance intervals
type SchedulerConfig struct {
	WarmInterval   time.Duration
	PurgeInterval  time.Duration
	ClickRetention time.Duration
	PageSize       int
	Location       *time.Location
}

// Scheduler runs periodic maintenance: cache warm-up and stale click cleanup
type Scheduler struct {
	sched  gocron.Scheduler
	warmer LeaderboardWarmer
	purger ClickPurger
	cfg    SchedulerConfig
}

// NewScheduler registers the maintenance jobs; call Start to run them
func NewScheduler(cfg SchedulerConfig, warmer LeaderboardWarmer, purger ClickPurger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, warmer: warmer, purger: purger, cfg: cfg}

	if cfg.WarmInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.WarmInterval),
			gocron.NewTask(s.warm),
			gocron.WithName("leaderboard-warm"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			return nil, fmt.Errorf("register warm job: %w", err)
		}
	}

	if cfg.PurgeInterval > 0 && cfg.ClickRetention > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.PurgeInterval),
			gocron.NewTask(s.purge),
			gocron.WithName("referral-click-purge"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("register purge job: %w", err)
		}
	}

	return s, nil
}

// Start begins running the registered jobs
func (s *Scheduler) Start() {
	s.sched.Start()
	log.WithField("jobs", len(s.sched.Jobs())).Info("Scheduler started")
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.warmer.Warm(ctx, s.cfg.PageSize); err != nil {
		log.WithError(err).Warn("[Scheduler] Leaderboard warm-up failed")
	}
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.purger.PurgeStaleClicks(ctx, s.cfg.ClickRetention)
	if err != nil {
		log.WithError(err).Error("[Scheduler] Failed to purge referral clicks")
		return
	}
	if n > 0 {
		log.WithField("deleted", n).Info("[Scheduler] Purged stale referral clicks")
	}
}
