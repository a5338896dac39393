// Package engine implements the event-to-state reconciliation core: it
// classifies raw transfer and marketplace events, correlates the two legs of
// a sale emitted as separate logs within one transaction, and maintains the
// derived per-account, per-token and per-transaction aggregates.
package engine

import (
	"github.com/covenlabs/coven-indexer/internal/store"
)

// Contracts identifies the tracked on-chain contracts. Logs from other
// addresses are ignored during correlation.
type Contracts struct {
	// NFTAddress is the ERC-721 collection contract
	NFTAddress string
	// MarketplaceAddress is the exchange contract emitting OrdersMatched
	MarketplaceAddress string
}

// Engine processes events sequentially, one at a time, in delivery order.
// It assumes a single logical writer; nothing here is safe for concurrent use.
type Engine struct {
	store     store.Store
	contracts Contracts
}

// New creates an engine writing through the given store
func New(st store.Store, contracts Contracts) *Engine {
	return &Engine{store: st, contracts: contracts}
}
