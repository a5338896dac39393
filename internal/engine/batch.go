package engine

import (
	"context"
	"math/big"
	"sort"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// ProcessBatch walks one transaction's logs in log-index order and dispatches
// those the engine watches. A handler error aborts the batch so the message
// is redelivered whole; per-event idempotence makes the partial replay safe.
func (e *Engine) ProcessBatch(ctx context.Context, batch *domain.TransactionLogBatch) error {
	if batch.TxHash == "" {
		return domain.ErrMissingTxHash
	}

	logs := make([]domain.EventLog, len(batch.Logs))
	copy(logs, batch.Logs)
	sort.Slice(logs, func(i, j int) bool { return logs[i].LogIndex < logs[j].LogIndex })

	for i := range logs {
		lg := &logs[i]
		switch lg.Topic0() {
		case domain.TransferEventSignature:
			// ERC-20 Transfer shares the signature but carries three topics.
			if len(lg.Topics) != 4 {
				continue
			}
			if e.contracts.NFTAddress != "" && !sameAddress(lg.Address, e.contracts.NFTAddress) {
				continue
			}
			ev := &domain.TransferEvent{
				From:           addressFromTopic(lg.Topic(1)),
				To:             addressFromTopic(lg.Topic(2)),
				TokenID:        new(big.Int).SetBytes(lg.Topic(3).Bytes()),
				TxHash:         batch.TxHash,
				LogIndex:       lg.LogIndex,
				BlockNumber:    batch.BlockNumber,
				BlockTimestamp: batch.Timestamp,
				SiblingLogs:    logs,
			}
			if err := e.OnTransfer(ctx, ev); err != nil {
				return err
			}

		case domain.OrdersMatchedEventSignature:
			if e.contracts.MarketplaceAddress != "" && !sameAddress(lg.Address, e.contracts.MarketplaceAddress) {
				continue
			}
			ev := &domain.OrdersMatchedEvent{
				Maker:          addressFromTopic(lg.Topic(1)),
				Taker:          addressFromTopic(lg.Topic(2)),
				Price:          domain.DecodeOrdersMatchedPrice(lg.DataBytes()),
				TxHash:         batch.TxHash,
				LogIndex:       lg.LogIndex,
				BlockNumber:    batch.BlockNumber,
				BlockTimestamp: batch.Timestamp,
				SiblingLogs:    logs,
			}
			if err := e.OnOrdersMatched(ctx, ev); err != nil {
				return err
			}
		}
	}

	return nil
}
