package ethereum

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

func gethLog(txHash string, blockNumber uint64, index uint, data []byte) types.Log {
	return types.Log{
		Address: common.HexToAddress("0x5180DB8F5c931AAE63c74266b211F580155ECac8"),
		Topics: []common.Hash{
			domain.TransferEventSignature,
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
			common.HexToHash("0x07"),
		},
		Data:        data,
		TxHash:      common.HexToHash(txHash),
		BlockNumber: blockNumber,
		BlockHash:   common.HexToHash("0xb10c"),
		Index:       index,
	}
}

func TestToEventLog(t *testing.T) {
	lg := ToEventLog(gethLog("0xAA01", 100, 4, []byte{0x01, 0x02}))

	assert.Equal(t, "0x5180db8f5c931aae63c74266b211f580155ecac8", lg.Address)
	require.Len(t, lg.Topics, 4)
	assert.Equal(t, domain.TransferEventSignature.Hex(), lg.Topics[0])
	assert.Equal(t, "0x0102", lg.Data)
	assert.Equal(t, uint(4), lg.LogIndex)

	// The wire format must round-trip into the same topics.
	assert.Equal(t, domain.TransferEventSignature, lg.Topic0())
	assert.Equal(t, []byte{0x01, 0x02}, lg.DataBytes())
}

func TestToEventLogEmptyData(t *testing.T) {
	lg := ToEventLog(gethLog("0xAA01", 100, 0, nil))
	assert.Equal(t, "0x", lg.Data)
	assert.Empty(t, lg.DataBytes())
}

func TestGroupByTransaction(t *testing.T) {
	at := func(blockNumber uint64) time.Time {
		return time.Unix(int64(blockNumber), 0).UTC()
	}

	logs := []types.Log{
		gethLog("0xAA01", 100, 0, nil),
		gethLog("0xAA01", 100, 1, nil),
		gethLog("0xBB02", 100, 5, nil),
		gethLog("0xCC03", 101, 0, nil),
	}

	batches := GroupByTransaction(logs, at)
	require.Len(t, batches, 3)

	// HexToHash left-pads, so compare against the full 32-byte form.
	assert.Equal(t, common.HexToHash("0xAA01").Hex(), batches[0].TxHash)
	assert.Len(t, batches[0].Logs, 2)
	assert.Equal(t, uint(0), batches[0].Logs[0].LogIndex)
	assert.Equal(t, uint(1), batches[0].Logs[1].LogIndex)
	assert.Equal(t, uint64(100), batches[0].BlockNumber)
	assert.Equal(t, at(100), batches[0].Timestamp)

	assert.Len(t, batches[1].Logs, 1)
	assert.Equal(t, uint64(100), batches[1].BlockNumber)

	assert.Equal(t, uint64(101), batches[2].BlockNumber)
	assert.Equal(t, at(101), batches[2].Timestamp)
}

func TestGroupByTransactionSkipsRemoved(t *testing.T) {
	removed := gethLog("0xAA01", 100, 0, nil)
	removed.Removed = true

	batches := GroupByTransaction([]types.Log{removed}, func(uint64) time.Time { return time.Time{} })
	assert.Empty(t, batches)
}
