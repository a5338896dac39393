package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionType classifies the economic meaning of a processed event.
type TransactionType string

const (
	// TransactionTypeTrade is a marketplace-brokered sale correlated from a
	// Transfer + OrdersMatched pair within one transaction.
	TransactionTypeTrade TransactionType = "trade"
	// TransactionTypeMint is a Transfer whose sender is the zero address.
	TransactionTypeMint TransactionType = "mint"
	// TransactionTypeTransfer is a bare transfer with no marketplace leg.
	TransactionTypeTransfer TransactionType = "transfer"
)

// Provenance identifies the log entry that last touched an entity.
type Provenance struct {
	TxHash         string
	LogIndex       uint
	BlockNumber    uint64
	BlockTimestamp time.Time
}

// EventLog is one raw log entry of a transaction receipt, in the normalized
// wire format the aggregator consumes.
type EventLog struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex uint     `json:"log_index"`
}

// Topic0 returns the event signature topic, or the zero hash when the log
// carries no topics (anonymous events).
func (l *EventLog) Topic0() common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return common.HexToHash(l.Topics[0])
}

// Topic returns the indexed topic at position i, or the zero hash if absent.
func (l *EventLog) Topic(i int) common.Hash {
	if i >= len(l.Topics) {
		return common.Hash{}
	}
	return common.HexToHash(l.Topics[i])
}

// DataBytes decodes the hex data payload. Malformed payloads decode as empty.
func (l *EventLog) DataBytes() []byte {
	return common.FromHex(l.Data)
}

// TransactionLogBatch is the wire format published for one transaction: every
// log the transaction emitted, delivered atomically so handlers can correlate
// sibling logs without further lookups.
type TransactionLogBatch struct {
	TxHash      string     `json:"tx_hash"`
	BlockNumber uint64     `json:"block_number"`
	BlockHash   string     `json:"block_hash,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Logs        []EventLog `json:"logs"`
}

// TransferEvent is a decoded ERC-721 Transfer log together with the full
// sibling log list of its enclosing transaction.
type TransferEvent struct {
	From           string
	To             string
	TokenID        *big.Int
	TxHash         string
	LogIndex       uint
	BlockNumber    uint64
	BlockTimestamp time.Time
	SiblingLogs    []EventLog
}

// IsMint reports whether the transfer originates from the zero address.
func (e *TransferEvent) IsMint() bool {
	return strings.EqualFold(e.From, ETHEREUM_ZERO_ADDRESS)
}

// IsBurn reports whether the transfer sends the token to the zero address.
func (e *TransferEvent) IsBurn() bool {
	return strings.EqualFold(e.To, ETHEREUM_ZERO_ADDRESS)
}

// Provenance returns the provenance fields of this event.
func (e *TransferEvent) Provenance() Provenance {
	return Provenance{
		TxHash:         e.TxHash,
		LogIndex:       e.LogIndex,
		BlockNumber:    e.BlockNumber,
		BlockTimestamp: e.BlockTimestamp,
	}
}

// Valid checks the core identity of the event. Events failing this check are
// fatal for that single event only.
func (e *TransferEvent) Valid() bool {
	return e.TxHash != "" && e.TokenID != nil && e.From != "" && e.To != ""
}

// OrdersMatchedEvent is a decoded marketplace OrdersMatched log together with
// the full sibling log list of its enclosing transaction. It carries the sale
// price but no token id; the token id is recovered by correlation.
type OrdersMatchedEvent struct {
	Maker          string
	Taker          string
	Price          *big.Int
	TxHash         string
	LogIndex       uint
	BlockNumber    uint64
	BlockTimestamp time.Time
	SiblingLogs    []EventLog
}

// Provenance returns the provenance fields of this event.
func (e *OrdersMatchedEvent) Provenance() Provenance {
	return Provenance{
		TxHash:         e.TxHash,
		LogIndex:       e.LogIndex,
		BlockNumber:    e.BlockNumber,
		BlockTimestamp: e.BlockTimestamp,
	}
}

// Valid checks the core identity of the event.
func (e *OrdersMatchedEvent) Valid() bool {
	return e.TxHash != "" && e.Price != nil
}
