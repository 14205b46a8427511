package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// MatchSubmitter accepts match records the same way the HTTP API does
type MatchSubmitter interface {
	AddMatch(ctx context.Context, playerID string, req *models.AddMatchRequest) (*models.Match, error)
}

// PlayerLister returns known player ids
type PlayerLister interface {
	PlayerIDs(ctx context.Context, limit int) ([]string, error)
}

// SimulationManager feeds random matches for known players through the
// match service, bypassing the HTTP layer
type SimulationManager struct {
	matches MatchSubmitter
	players PlayerLister
	ids     []string
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	rng     *rand.Rand

	// Metrics
	totalMatches atomic.Int64
	successCount atomic.Int64
	errorCount   atomic.Int64
	startTime    time.Time

	tickInterval   time.Duration
	matchesPerTick int
	maxPlayers     int
}

// SimulatorConfig holds configuration for the simulator
type SimulatorConfig struct {
	TickInterval   time.Duration // Default: 500ms
	MatchesPerTick int           // Default: 1
	MaxPlayers     int           // Default: 1000
}

// NewSimulationManager creates a new simulation manager
func NewSimulationManager(matches MatchSubmitter, players PlayerLister, config SimulatorConfig) *SimulationManager {
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if config.MatchesPerTick <= 0 {
		config.MatchesPerTick = 1
	}
	if config.MaxPlayers <= 0 {
		config.MaxPlayers = 1000
	}

	return &SimulationManager{
		matches:        matches,
		players:        players,
		stopCh:         make(chan struct{}),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		tickInterval:   config.TickInterval,
		matchesPerTick: config.MatchesPerTick,
		maxPlayers:     config.MaxPlayers,
	}
}

// Start begins the simulation loop
func (sm *SimulationManager) Start(ctx context.Context) error {
	if sm.running.Load() {
		return fmt.Errorf("simulation already running")
	}

	ids, err := sm.players.PlayerIDs(ctx, sm.maxPlayers)
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no players available for simulation")
	}

	sm.ids = ids
	sm.startTime = time.Now()
	sm.running.Store(true)

	log.WithFields(log.Fields{
		"players":          len(sm.ids),
		"tick_interval":    sm.tickInterval,
		"matches_per_tick": sm.matchesPerTick,
	}).Info("Simulation manager started")

	sm.wg.Add(1)
	go sm.simulationLoop(ctx)

	return nil
}

// Stop gracefully stops the simulation
func (sm *SimulationManager) Stop() {
	if !sm.running.Load() {
		return
	}

	sm.running.Store(false)
	close(sm.stopCh)
	sm.wg.Wait()

	log.WithFields(log.Fields{
		"total":      sm.totalMatches.Load(),
		"successful": sm.successCount.Load(),
		"errors":     sm.errorCount.Load(),
		"duration":   time.Since(sm.startTime).Round(time.Second),
	}).Info("Simulation manager stopped")
}

// IsRunning returns whether the simulation is currently running
func (sm *SimulationManager) IsRunning() bool {
	return sm.running.Load()
}

// Counts returns total, successful and failed submissions so far
func (sm *SimulationManager) Counts() (total, success, failed int64) {
	return sm.totalMatches.Load(), sm.successCount.Load(), sm.errorCount.Load()
}

func (sm *SimulationManager) simulationLoop(ctx context.Context) {
	defer sm.wg.Done()

	ticker := time.NewTicker(sm.tickInterval)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-sm.stopCh:
			return

		case <-ticker.C:
			for i := 0; i < sm.matchesPerTick; i++ {
				if idx >= len(sm.ids) {
					idx = 0
					sm.rng.Shuffle(len(sm.ids), func(i, j int) {
						sm.ids[i], sm.ids[j] = sm.ids[j], sm.ids[i]
					})
				}
				playerID := sm.ids[idx]
				idx++

				sm.submit(ctx, playerID)
			}
		}
	}
}

func (sm *SimulationManager) submit(ctx context.Context, playerID string) {
	req := RandomMatch(sm.rng, playerID, time.Now().UTC().Truncate(time.Second))

	sm.totalMatches.Add(1)
	if _, err := sm.matches.AddMatch(ctx, playerID, req); err != nil {
		n := sm.errorCount.Add(1)
		var verr *common.ValidationError
		if errors.As(err, &verr) || n%100 == 1 {
			log.WithError(err).WithField("errors", n).Warn("Simulation error")
		}
		return
	}
	sm.successCount.Add(1)
}
