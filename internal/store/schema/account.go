package schema

import (
	"time"
)

// Account represents the accounts table - per-address lifetime aggregates and
// behavioral classification. Keyed by lowercase hex address; never deleted.
type Account struct {
	// ID is the lowercase hex address of the account
	ID string `gorm:"column:id;primaryKey;type:text"`
	// MintCount is the number of tokens this address minted
	MintCount uint64 `gorm:"column:mint_count;not null;default:0"`
	// BuyCount is the number of marketplace purchases by this address
	BuyCount uint64 `gorm:"column:buy_count;not null;default:0"`
	// SaleCount is the number of marketplace sales by this address
	SaleCount uint64 `gorm:"column:sale_count;not null;default:0"`
	// TotalAmountBought is the cumulative purchase volume in wei (string to support up to 78 digits)
	TotalAmountBought string `gorm:"column:total_amount_bought;not null;default:0;type:numeric(78,0)"`
	// TotalAmountSold is the cumulative sale volume in wei
	TotalAmountSold string `gorm:"column:total_amount_sold;not null;default:0;type:numeric(78,0)"`
	// TotalAmountBalance is the net value spent (bought minus sold), floored at zero
	TotalAmountBalance string `gorm:"column:total_amount_balance;not null;default:0;type:numeric(78,0)"`
	// Classification flags - a pure function of the three counters above,
	// recomputed on every mutation and mutually exclusive by construction
	IsOG        bool `gorm:"column:is_og;not null;default:false"`
	IsCollector bool `gorm:"column:is_collector;not null;default:false"`
	IsHunter    bool `gorm:"column:is_hunter;not null;default:false"`
	IsFarmer    bool `gorm:"column:is_farmer;not null;default:false"`
	IsTrader    bool `gorm:"column:is_trader;not null;default:false"`
	// Last-seen transaction provenance
	LastLogIndex       uint      `gorm:"column:last_log_index;not null;default:0"`
	LastTxHash         string    `gorm:"column:last_tx_hash;not null;default:'';type:text"`
	LastBlockNumber    uint64    `gorm:"column:last_block_number;not null;default:0"`
	LastBlockTimestamp time.Time `gorm:"column:last_block_timestamp;type:timestamptz"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
