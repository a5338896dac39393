package messaging

import (
	"context"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// BatchHandler processes the complete log set of one transaction.
type BatchHandler func(ctx context.Context, batch *domain.TransactionLogBatch) error

// Source delivers transaction log batches to a handler in chain order.
// The NATS bridge and the RPC backfill fetcher both implement it.
type Source interface {
	// Run blocks, feeding batches to the handler until the context is
	// canceled or the source is exhausted.
	Run(ctx context.Context, handler BatchHandler) error

	// Close closes the underlying connection and cleans up resources
	Close()
}
