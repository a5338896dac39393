package schema

import (
	"time"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// AccountHistory represents the account_histories table - an append-only
// snapshot of an account's counters and classification at one event. Rows are
// created once and never mutated; their presence also marks the (account,
// event) pair as already applied, which is what makes replays idempotent.
type AccountHistory struct {
	// ID is the composite key <address>-<txHash>-<logIndex>
	ID string `gorm:"column:id;primaryKey;type:text"`
	// AccountID references the snapshotted account
	AccountID string `gorm:"column:account_id;not null;type:text;index:idx_account_histories_account"`
	// Counter snapshot
	MintCount          uint64 `gorm:"column:mint_count;not null;default:0"`
	BuyCount           uint64 `gorm:"column:buy_count;not null;default:0"`
	SaleCount          uint64 `gorm:"column:sale_count;not null;default:0"`
	TotalAmountBought  string `gorm:"column:total_amount_bought;not null;default:0;type:numeric(78,0)"`
	TotalAmountSold    string `gorm:"column:total_amount_sold;not null;default:0;type:numeric(78,0)"`
	TotalAmountBalance string `gorm:"column:total_amount_balance;not null;default:0;type:numeric(78,0)"`
	// Category is the classification at snapshot time
	Category domain.Category `gorm:"column:category;not null;default:'';type:text"`
	// Provenance of the event that produced this snapshot
	LogIndex       uint      `gorm:"column:log_index;not null;default:0"`
	TxHash         string    `gorm:"column:tx_hash;not null;type:text"`
	BlockNumber    uint64    `gorm:"column:block_number;not null;default:0"`
	BlockTimestamp time.Time `gorm:"column:block_timestamp;type:timestamptz"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the AccountHistory model
func (AccountHistory) TableName() string {
	return "account_histories"
}
