package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for duplicate keys
const pgUniqueViolation = "23505"

// Store handles all PostgreSQL operations. A Store is either bound to the
// connection pool or, inside Transaction, to a single open transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Postgres-backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db: db,
	}
}

// Transaction runs fn against a Store bound to one database transaction.
// Any error returned by fn rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// UpsertPlayer creates or updates a player's display identity
// Uses ON CONFLICT to handle upserts efficiently
func (s *Store) UpsertPlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "avatar_url", "updated_at"}),
	}).Create(player).Error
}

// GetPlayer retrieves a player by id
func (s *Store) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &player, nil
}

// GetPlayersByIDs loads display identities keyed by player id; unknown ids are absent
func (s *Store) GetPlayersByIDs(ctx context.Context, ids []string) (map[string]models.Player, error) {
	out := make(map[string]models.Player, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var players []models.Player
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	for _, p := range players {
		out[p.ID] = p
	}
	return out, nil
}

// ListPlayerIDs returns up to limit player ids (used by the simulator)
func (s *Store) ListPlayerIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Player{}).Order("id").Limit(limit).Pluck("id", &ids).Error
	return ids, err
}

// BulkInsertPlayers efficiently inserts multiple players
func (s *Store) BulkInsertPlayers(ctx context.Context, players []models.Player, batchSize int) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(players, batchSize).Error
}

// CountPlayers returns the total count of players
func (s *Store) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Player{}).Count(&count).Error
	return count, err
}

// Ping checks if database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.Wallet{},
		&models.PointsAccount{},
		&models.ReferralProfile{},
		&models.Referral{},
		&models.ReferralClick{},
	)
}

// isDuplicateKey recognises unique violations whether or not gorm translated them
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
