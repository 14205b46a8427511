package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"scoreledger/internal/api"
	"scoreledger/internal/api/handlers"
	"scoreledger/internal/config"
	"scoreledger/internal/jobs"
	"scoreledger/internal/logging"
	"scoreledger/internal/metrics"
	"scoreledger/internal/repository"
	"scoreledger/internal/service"
	"scoreledger/internal/validation"
	"scoreledger/internal/websocket"
	"scoreledger/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := logging.Setup(cfg.App, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL with connection pooling
	db, err := repository.ConnectPostgres(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Info("Connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := repository.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("Connected to Redis")

	store := repository.NewStore(db)
	cache := repository.NewLeaderboardCache(redisClient, cfg.Leaderboard.CacheTTL)

	// Run migrations
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations completed")

	m := metrics.New()
	v := validation.New()
	windows := service.NewWindows(cfg.Location(), time.Now)

	matchService := service.NewMatchService(store, cache, v, cfg.ScoringRules(), windows, m)
	leaderboardService := service.NewLeaderboardService(store, cache, windows, m)
	walletService := service.NewWalletService(store, cfg.Rewards(), m)
	referralService := service.NewReferralService(store, cfg.Rewards(), m)
	playerService := service.NewPlayerService(store)

	// Worker pool for landing page click persistence
	workerPool := worker.NewWorkerPool(cfg.Worker.Count, cfg.Worker.QueueSize, referralService, m)
	workerPool.Start()

	// WebSocket hub broadcasting leaderboard versions
	hub := websocket.NewHub(leaderboardService)
	go hub.Run(ctx)

	scheduler, err := jobs.NewScheduler(jobs.SchedulerConfig{
		WarmInterval:   cfg.Jobs.WarmInterval,
		PurgeInterval:  cfg.Jobs.PurgeInterval,
		ClickRetention: cfg.Jobs.ClickRetention,
		PageSize:       cfg.Leaderboard.DefaultPageSize,
		Location:       cfg.Location(),
	}, leaderboardService, referralService)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	var simulator *jobs.SimulationManager
	if cfg.Simulator.Enabled {
		simulator = jobs.NewSimulationManager(matchService, playerService, jobs.SimulatorConfig{
			TickInterval:   cfg.Simulator.TickInterval,
			MatchesPerTick: cfg.Simulator.MatchesPerTick,
		})
		if err := simulator.Start(ctx); err != nil {
			log.WithError(err).Warn("Failed to start simulator")
		}
	}

	app := api.NewApp(api.Dependencies{
		Matches:     matchService,
		Leaderboard: leaderboardService,
		Wallet:      walletService,
		Referrals:   referralService,
		Players:     playerService,
		Clicks:      workerPool,
		Hub:         hub,
		Metrics:     m,
		Validator:   v,
		Paging: handlers.Paging{
			DefaultSize: cfg.Leaderboard.DefaultPageSize,
			MaxSize:     cfg.Leaderboard.MaxPageSize,
		},
		AccessLog: true,
	})

	// Graceful shutdown with worker pool flushing
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		log.WithField("signal", sig.String()).Info("Shutting down server...")

		// First, stop generating load
		if simulator != nil {
			simulator.Stop()
		}

		// Second, stop accepting new HTTP requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("Server forced to shutdown")
		}

		// Third, stop scheduled jobs and flush pending clicks
		if err := scheduler.Shutdown(); err != nil {
			log.WithError(err).Warn("Scheduler shutdown error")
		}
		if err := workerPool.Shutdown(30 * time.Second); err != nil {
			log.WithError(err).Warn("Worker pool shutdown error")
		}
		cancel()

		// Finally, close connections
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Error closing PostgreSQL")
		}
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("Error closing Redis")
		}

		log.Info("Server shutdown complete")
	}()

	port := cfg.Server.Port
	log.WithField("port", port).Info("Server starting")
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	<-shutdownDone
}
