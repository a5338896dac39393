package schema

import (
	"time"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// Transaction represents the transactions table - one row per processed log
// entry, keyed by the deterministic (txHash, logIndex) global id. Sale
// aggregates are scoped to this record only, not global.
type Transaction struct {
	// ID is the global id derived from (txHash, logIndex)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Account is the primary counterparty id (recipient for mints and
	// transfers, buyer for trades)
	Account string `gorm:"column:account;not null;default:'';type:text;index:idx_transactions_account"`
	// ReferenceID is the correlated token id, populated when recoverable
	ReferenceID string `gorm:"column:reference_id;not null;default:'';type:text"`
	// TransactionType is the semantic classification (trade, mint, transfer)
	TransactionType domain.TransactionType `gorm:"column:transaction_type;not null;type:text"`
	// Buyer is the purchasing address for trades, empty otherwise
	Buyer string `gorm:"column:buyer;not null;default:'';type:text"`
	// Seller is the selling address for trades, empty otherwise
	Seller string `gorm:"column:seller;not null;default:'';type:text"`
	// NFTSalePrice is the matched order price in wei
	NFTSalePrice string `gorm:"column:nft_sale_price;not null;default:0;type:numeric(78,0)"`
	// TotalNFTsSold counts tokens moved by this trade (greater than one for batch sales)
	TotalNFTsSold uint64 `gorm:"column:total_nfts_sold;not null;default:0"`
	// Sale aggregates for this record, rebuilt whole on every application
	TotalSalesVolume string `gorm:"column:total_sales_volume;not null;default:0;type:numeric(78,0)"`
	TotalSalesCount  uint64 `gorm:"column:total_sales_count;not null;default:0"`
	HighestSalePrice string `gorm:"column:highest_sale_price;not null;default:0;type:numeric(78,0)"`
	LowestSalePrice  string `gorm:"column:lowest_sale_price;not null;default:0;type:numeric(78,0)"`
	AverageSalePrice string `gorm:"column:average_sale_price;not null;default:0;type:numeric(78,0)"`
	// Provenance
	LogIndex       uint      `gorm:"column:log_index;not null;default:0"`
	TxHash         string    `gorm:"column:tx_hash;not null;type:text;index:idx_transactions_tx_hash"`
	BlockNumber    uint64    `gorm:"column:block_number;not null;default:0"`
	BlockTimestamp time.Time `gorm:"column:block_timestamp;type:timestamptz"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
