package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"scoreledger/internal/scoring"
)

// maxPageSizeLimit is the largest page any list endpoint may serve
const maxPageSizeLimit = 100

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig    `envconfig:"DB"`
	Redis       RedisConfig       `envconfig:"REDIS"`
	Server      ServerConfig      `envconfig:"BACKEND"`
	App         AppConfig         `envconfig:"APP"`
	Log         LogConfig         `envconfig:"LOG"`
	Reward      RewardConfig      `envconfig:"REWARD"`
	Score       ScoreConfig       `envconfig:"SCORE"`
	Leaderboard LeaderboardConfig `envconfig:"LEADERBOARD"`
	Worker      WorkerConfig      `envconfig:"WORKER"`
	Jobs        JobsConfig        `envconfig:"JOBS"`
	Simulator   SimulatorConfig   `envconfig:"SIMULATOR"`

	location *time.Location
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string `split_words:"true"`
	Host         string `split_words:"true" default:"localhost"`
	Port         int    `split_words:"true" default:"5432"`
	User         string `split_words:"true" default:"postgres"`
	Password     string `split_words:"true"`
	Name         string `split_words:"true" default:"scoreledger"`
	SSLMode      string `split_words:"true" default:"disable"`
	MaxOpenConns int    `split_words:"true" default:"30"`
	MaxIdleConns int    `split_words:"true" default:"10"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true" default:"6379"`
	Username string `split_words:"true"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int `split_words:"true" default:"8000"`
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env      string `split_words:"true" default:"development"`
	LogLevel string `split_words:"true" default:"info"`
	// Leaderboard windows (today, this week, this month) start at midnight in this zone.
	Timezone string `split_words:"true" default:"UTC"`
}

// LogConfig controls the optional rotating log file
type LogConfig struct {
	File       string `split_words:"true"`
	MaxSizeMB  int    `split_words:"true" default:"50"`
	MaxBackups int    `split_words:"true" default:"5"`
	MaxAgeDays int    `split_words:"true" default:"14"`
}

// RewardConfig holds the currency and referral constants
type RewardConfig struct {
	PointsPerCoin int64 `split_words:"true" default:"10"`
	ReferralLimit int   `split_words:"true" default:"10"`
	ReferrerBonus int64 `split_words:"true" default:"50"`
	RefereeBonus  int64 `split_words:"true" default:"25"`
}

// ScoreConfig overrides the floor and optional ceiling of the scoring rules
type ScoreConfig struct {
	MinPoints int `split_words:"true" default:"10"`
	MaxPoints int `split_words:"true" default:"0"`
}

// LeaderboardConfig holds leaderboard query settings
type LeaderboardConfig struct {
	CacheTTL        time.Duration `split_words:"true" default:"60s"`
	DefaultPageSize int           `split_words:"true" default:"20"`
	MaxPageSize     int           `split_words:"true" default:"100"`
}

// WorkerConfig sizes the referral click worker pool
type WorkerConfig struct {
	Count     int `split_words:"true" default:"4"`
	QueueSize int `split_words:"true" default:"1000"`
}

// JobsConfig holds intervals for scheduled maintenance
type JobsConfig struct {
	WarmInterval   time.Duration `split_words:"true" default:"1m"`
	PurgeInterval  time.Duration `split_words:"true" default:"1h"`
	ClickRetention time.Duration `split_words:"true" default:"720h"`
}

// SimulatorConfig controls the match load simulator
type SimulatorConfig struct {
	Enabled        bool          `split_words:"true" default:"false"`
	TickInterval   time.Duration `split_words:"true" default:"500ms"`
	MatchesPerTick int           `split_words:"true" default:"1"`
}

// Rewards is the immutable reward configuration handed to the ledger and referral services
type Rewards struct {
	PointsPerCoin int64
	ReferralLimit int
	ReferrerBonus int64
	RefereeBonus  int64
}

// Load loads configuration from the environment, reading a .env file first if one exists
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Try the parent directory as fallback
		if err := godotenv.Load("../.env"); err != nil {
			log.Debug("No .env file found, using environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the services cannot run with
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	c.location = loc

	if c.Reward.PointsPerCoin <= 0 {
		return fmt.Errorf("REWARD_POINTS_PER_COIN must be > 0")
	}
	if c.Reward.ReferralLimit <= 0 {
		return fmt.Errorf("REWARD_REFERRAL_LIMIT must be > 0")
	}
	if c.Reward.ReferrerBonus <= 0 || c.Reward.RefereeBonus <= 0 {
		return fmt.Errorf("REWARD_REFERRER_BONUS and REWARD_REFEREE_BONUS must be > 0")
	}
	if c.Score.MinPoints < 0 {
		return fmt.Errorf("SCORE_MIN_POINTS must be >= 0")
	}
	if c.Score.MaxPoints != 0 && c.Score.MaxPoints < c.Score.MinPoints {
		return fmt.Errorf("SCORE_MAX_POINTS must be 0 (no cap) or >= SCORE_MIN_POINTS")
	}
	if c.Leaderboard.MaxPageSize <= 0 || c.Leaderboard.MaxPageSize > maxPageSizeLimit {
		return fmt.Errorf("LEADERBOARD_MAX_PAGE_SIZE must be between 1 and %d", maxPageSizeLimit)
	}
	if c.Leaderboard.DefaultPageSize <= 0 || c.Leaderboard.DefaultPageSize > c.Leaderboard.MaxPageSize {
		return fmt.Errorf("LEADERBOARD_DEFAULT_PAGE_SIZE must be between 1 and LEADERBOARD_MAX_PAGE_SIZE")
	}
	if c.Worker.Count <= 0 || c.Worker.QueueSize <= 0 {
		return fmt.Errorf("WORKER_COUNT and WORKER_QUEUE_SIZE must be > 0")
	}
	return nil
}

// Location returns the time zone used for leaderboard windows
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Rewards returns the reward constants as an immutable value
func (c *Config) Rewards() Rewards {
	return Rewards{
		PointsPerCoin: c.Reward.PointsPerCoin,
		ReferralLimit: c.Reward.ReferralLimit,
		ReferrerBonus: c.Reward.ReferrerBonus,
		RefereeBonus:  c.Reward.RefereeBonus,
	}
}

// ScoringRules returns the default rule table with the configured floor and ceiling
func (c *Config) ScoringRules() scoring.Rules {
	return scoring.DefaultRules().WithBounds(c.Score.MinPoints, c.Score.MaxPoints)
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
