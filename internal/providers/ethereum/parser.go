package ethereum

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// ToEventLog converts a geth log into the normalized wire format.
func ToEventLog(vLog types.Log) domain.EventLog {
	topics := make([]string, len(vLog.Topics))
	for i, topic := range vLog.Topics {
		topics[i] = topic.Hex()
	}
	return domain.EventLog{
		Address:  strings.ToLower(vLog.Address.Hex()),
		Topics:   topics,
		Data:     hexutil.Encode(vLog.Data),
		LogIndex: vLog.Index,
	}
}

// GroupByTransaction folds a chain-ordered log slice into one batch per
// transaction, preserving the order transactions first appear. Timestamps are
// resolved by the caller, which knows the block headers.
func GroupByTransaction(logs []types.Log, timestampFor func(blockNumber uint64) time.Time) []*domain.TransactionLogBatch {
	var batches []*domain.TransactionLogBatch
	index := make(map[string]*domain.TransactionLogBatch)

	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		txHash := strings.ToLower(vLog.TxHash.Hex())
		batch, ok := index[txHash]
		if !ok {
			batch = &domain.TransactionLogBatch{
				TxHash:      txHash,
				BlockNumber: vLog.BlockNumber,
				BlockHash:   strings.ToLower(vLog.BlockHash.Hex()),
				Timestamp:   timestampFor(vLog.BlockNumber),
			}
			index[txHash] = batch
			batches = append(batches, batch)
		}
		batch.Logs = append(batch.Logs, ToEventLog(vLog))
	}

	return batches
}
