package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"scoreledger/internal/models"
)

const (
	// VersionKeyPrefix prefixes the per-period leaderboard version counters
	VersionKeyPrefix = "leaderboard:version:"

	// CacheKeyPrefix prefixes cached leaderboard pages
	CacheKeyPrefix = "leaderboard:cache:"
)

// LeaderboardCache stores rendered leaderboard pages in Redis.
// Every page key embeds the period's version counter, so bumping the
// version makes all older pages of that period unreachable; they expire by TTL.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new Redis-backed leaderboard cache
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

// VersionKey returns the counter key for a period
func VersionKey(period models.Period) string {
	return VersionKeyPrefix + string(period)
}

// PageKey builds the cache key for one page of one window at one version
func PageKey(period models.Period, windowStart *time.Time, version int64, page, pageSize int) string {
	var start int64
	if windowStart != nil {
		start = windowStart.Unix()
	}
	return fmt.Sprintf("%s%s:%d:%d:%d:%d", CacheKeyPrefix, period, start, version, page, pageSize)
}

// GetVersion returns the current version of a period (0 if never bumped)
func (c *LeaderboardCache) GetVersion(ctx context.Context, period models.Period) (int64, error) {
	version, err := c.client.Get(ctx, VersionKey(period)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil // Version not set yet, return 0
		}
		return 0, err
	}
	return version, nil
}

// GetVersions returns the versions of every period in one round trip
func (c *LeaderboardCache) GetVersions(ctx context.Context) (map[models.Period]int64, error) {
	pipe := c.client.Pipeline()
	cmds := make(map[models.Period]*redis.StringCmd, len(models.Periods))
	for _, p := range models.Periods {
		cmds[p] = pipe.Get(ctx, VersionKey(p))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	versions := make(map[models.Period]int64, len(cmds))
	for p, cmd := range cmds {
		v, err := cmd.Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		versions[p] = v
	}
	return versions, nil
}

// BumpVersions increments the version of each given period using a pipeline
func (c *LeaderboardCache) BumpVersions(ctx context.Context, periods []models.Period) error {
	if len(periods) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, p := range periods {
		pipe.Incr(ctx, VersionKey(p))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetPage returns a cached page; the bool is false on a miss
func (c *LeaderboardCache) GetPage(ctx context.Context, key string) (*models.LeaderboardResponse, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var resp models.LeaderboardResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached page: %w", err)
	}
	return &resp, true, nil
}

// SetPage stores a page under key with the configured TTL
func (c *LeaderboardCache) SetPage(ctx context.Context, key string, resp *models.LeaderboardResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Ping checks if Redis is reachable
func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}
