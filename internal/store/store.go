package store

import (
	"context"

	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// Store defines the keyed load/save contract the aggregation engine writes
// through. Get methods return (nil, nil) when the entity does not exist.
type Store interface {
	// GetAccount retrieves an account by its lowercase hex address
	GetAccount(ctx context.Context, id string) (*schema.Account, error)
	// SaveAccount persists an account (insert or update)
	SaveAccount(ctx context.Context, account *schema.Account) error

	// GetToken retrieves a token registry row by token id
	GetToken(ctx context.Context, id string) (*schema.Token, error)
	// SaveToken persists a token registry row (insert or update)
	SaveToken(ctx context.Context, token *schema.Token) error

	// GetTransaction retrieves a transaction record by its global id
	GetTransaction(ctx context.Context, id string) (*schema.Transaction, error)
	// SaveTransaction persists a transaction record (insert or update)
	SaveTransaction(ctx context.Context, tx *schema.Transaction) error

	// GetAccountHistory retrieves an account snapshot by its composite id
	GetAccountHistory(ctx context.Context, id string) (*schema.AccountHistory, error)
	// SaveAccountHistory persists an account snapshot (insert only; snapshots
	// are immutable and redeliveries must not overwrite them)
	SaveAccountHistory(ctx context.Context, history *schema.AccountHistory) error
}
