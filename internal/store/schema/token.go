package schema

import (
	"time"
)

// Token represents the tokens table - the current-state registry row for one
// NFT. Keyed by the on-chain token id (not by a per-event id) so "current
// owner" stays a single-row lookup; one row per token, never deleted.
type Token struct {
	// ID is the decimal token number within the tracked contract
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Owner is the lowercase hex address holding the token after the most
	// recently processed transfer (last-writer-wins in delivery order)
	Owner string `gorm:"column:owner;not null;default:'';type:text;index:idx_tokens_owner"`
	// Last-touching transaction provenance
	LastLogIndex       uint      `gorm:"column:last_log_index;not null;default:0"`
	LastTxHash         string    `gorm:"column:last_tx_hash;not null;default:'';type:text"`
	LastBlockNumber    uint64    `gorm:"column:last_block_number;not null;default:0"`
	LastBlockTimestamp time.Time `gorm:"column:last_block_timestamp;type:timestamptz"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
