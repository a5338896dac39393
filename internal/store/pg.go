package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the aggregate tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Account{},
		&schema.Token{},
		&schema.Transaction{},
		&schema.AccountHistory{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetAccount retrieves an account by its lowercase hex address
func (s *pgStore) GetAccount(ctx context.Context, id string) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// SaveAccount persists an account (insert or update)
func (s *pgStore) SaveAccount(ctx context.Context, account *schema.Account) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(account).Error
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetToken retrieves a token registry row by token id
func (s *pgStore) GetToken(ctx context.Context, id string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// SaveToken persists a token registry row (insert or update)
func (s *pgStore) SaveToken(ctx context.Context, token *schema.Token) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction record by its global id
func (s *pgStore) GetTransaction(ctx context.Context, id string) (*schema.Transaction, error) {
	var tx schema.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// SaveTransaction persists a transaction record (insert or update)
func (s *pgStore) SaveTransaction(ctx context.Context, tx *schema.Transaction) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(tx).Error
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// GetAccountHistory retrieves an account snapshot by its composite id
func (s *pgStore) GetAccountHistory(ctx context.Context, id string) (*schema.AccountHistory, error) {
	var history schema.AccountHistory
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account history: %w", err)
	}
	return &history, nil
}

// SaveAccountHistory persists an account snapshot. Snapshots are immutable:
// a conflicting id means the event was already applied, so the write is a
// no-op rather than an overwrite.
func (s *pgStore) SaveAccountHistory(ctx context.Context, history *schema.AccountHistory) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(history).Error
	if err != nil {
		return fmt.Errorf("failed to save account history: %w", err)
	}
	return nil
}
