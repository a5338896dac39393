package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/covenlabs/coven-indexer/internal/adapter"
	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/logger"
	"github.com/covenlabs/coven-indexer/internal/messaging"
)

const maxFetchRetries = 5

// FetcherConfig holds the block range and contracts for a backfill run.
type FetcherConfig struct {
	StartBlock         uint64
	EndBlock           uint64 // 0 means the latest block at startup
	BatchSize          uint64
	NFTAddress         string
	MarketplaceAddress string
}

type fetcher struct {
	client adapter.EthClient
	config FetcherConfig
}

// NewFetcher returns a batch source that replays historical logs of the
// watched contracts over RPC, in chain order.
func NewFetcher(client adapter.EthClient, cfg FetcherConfig) messaging.Source {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2000
	}
	return &fetcher{client: client, config: cfg}
}

// Run scans the configured block range chunk by chunk, groups the logs of
// each chunk by transaction and feeds the batches to the handler. It returns
// nil once the range is exhausted.
func (f *fetcher) Run(ctx context.Context, handler messaging.BatchHandler) error {
	endBlock := f.config.EndBlock
	if endBlock == 0 {
		header, err := f.headerByNumber(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to get latest header: %w", err)
		}
		endBlock = header.Number.Uint64()
	}

	logger.Info("Starting backfill",
		zap.Uint64("startBlock", f.config.StartBlock),
		zap.Uint64("endBlock", endBlock),
		zap.Uint64("batchSize", f.config.BatchSize))

	timestamps := make(map[uint64]time.Time)

	for from := f.config.StartBlock; from <= endBlock; from += f.config.BatchSize {
		to := from + f.config.BatchSize - 1
		if to > endBlock {
			to = endBlock
		}

		logs, err := f.filterLogs(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to fetch logs for range %d-%d: %w", from, to, err)
		}

		for blockNumber := range blockNumbers(logs) {
			if _, ok := timestamps[blockNumber]; ok {
				continue
			}
			header, err := f.headerByNumber(ctx, new(big.Int).SetUint64(blockNumber))
			if err != nil {
				return fmt.Errorf("failed to get header %d: %w", blockNumber, err)
			}
			timestamps[blockNumber] = time.Unix(int64(header.Time), 0).UTC()
		}

		batches := GroupByTransaction(logs, func(blockNumber uint64) time.Time {
			return timestamps[blockNumber]
		})
		for _, batch := range batches {
			if err := handler(ctx, batch); err != nil {
				return fmt.Errorf("failed to process batch %s: %w", batch.TxHash, err)
			}
		}

		logger.Debug("Backfilled range",
			zap.Uint64("fromBlock", from),
			zap.Uint64("toBlock", to),
			zap.Int("transactions", len(batches)))
	}

	return nil
}

// filterLogs fetches all Transfer and OrdersMatched logs of the watched
// contracts within the block range, retrying transient RPC failures.
func (f *fetcher) filterLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{
			common.HexToAddress(f.config.NFTAddress),
			common.HexToAddress(f.config.MarketplaceAddress),
		},
		Topics: [][]common.Hash{
			{domain.TransferEventSignature, domain.OrdersMatchedEventSignature},
		},
	}

	var logs []types.Log
	operation := func() error {
		var err error
		logs, err = f.client.FilterLogs(ctx, query)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return logs, nil
}

func (f *fetcher) headerByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	operation := func() error {
		var err error
		header, err = f.client.HeaderByNumber(ctx, number)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return header, nil
}

func blockNumbers(logs []types.Log) map[uint64]struct{} {
	numbers := make(map[uint64]struct{}, len(logs))
	for _, vLog := range logs {
		numbers[vLog.BlockNumber] = struct{}{}
	}
	return numbers
}

// Close closes the underlying RPC connection
func (f *fetcher) Close() {
	f.client.Close()
}
