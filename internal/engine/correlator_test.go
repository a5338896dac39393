package engine

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

const (
	testNFTAddress         = "0x5180db8f5c931aae63c74266b211f580155ecac8"
	testMarketplaceAddress = "0x7be8076f4ea4a4ad08075c2508e481d6c946d12b"

	alice = "0x00000000000000000000000000000000000a11ce"
	bob   = "0x0000000000000000000000000000000000000b0b"
	carol = "0x00000000000000000000000000000000000ca501"
)

func testContracts() Contracts {
	return Contracts{
		NFTAddress:         testNFTAddress,
		MarketplaceAddress: testMarketplaceAddress,
	}
}

func addressTopic(address string) string {
	return common.BytesToHash(common.HexToAddress(address).Bytes()).Hex()
}

func transferLog(from, to string, tokenID int64, logIndex uint) domain.EventLog {
	return domain.EventLog{
		Address: testNFTAddress,
		Topics: []string{
			domain.TransferEventSignature.Hex(),
			addressTopic(from),
			addressTopic(to),
			common.BigToHash(big.NewInt(tokenID)).Hex(),
		},
		Data:     "0x",
		LogIndex: logIndex,
	}
}

func erc20TransferLog(from, to string, logIndex uint) domain.EventLog {
	return domain.EventLog{
		Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		Topics: []string{
			domain.TransferEventSignature.Hex(),
			addressTopic(from),
			addressTopic(to),
		},
		Data:     hexutil.Encode(common.LeftPadBytes(big.NewInt(1000).Bytes(), 32)),
		LogIndex: logIndex,
	}
}

func ordersMatchedLog(maker, taker string, price int64, logIndex uint) domain.EventLog {
	data := make([]byte, 96)
	copy(data[64:96], common.LeftPadBytes(big.NewInt(price).Bytes(), 32))
	return domain.EventLog{
		Address: testMarketplaceAddress,
		Topics: []string{
			domain.OrdersMatchedEventSignature.Hex(),
			addressTopic(maker),
			addressTopic(taker),
		},
		Data:     hexutil.Encode(data),
		LogIndex: logIndex,
	}
}

func transferEvent(from, to string, tokenID int64, logIndex uint, siblings []domain.EventLog) *domain.TransferEvent {
	return &domain.TransferEvent{
		From:        from,
		To:          to,
		TokenID:     big.NewInt(tokenID),
		TxHash:      "0xaa11",
		LogIndex:    logIndex,
		SiblingLogs: siblings,
	}
}

func TestClassifyTransfer(t *testing.T) {
	tests := []struct {
		name     string
		event    *domain.TransferEvent
		expected domain.TransactionType
	}{
		{
			name:     "mint from zero address",
			event:    transferEvent(domain.ETHEREUM_ZERO_ADDRESS, alice, 1, 0, nil),
			expected: domain.TransactionTypeMint,
		},
		{
			name:     "no sibling logs degrades to transfer",
			event:    transferEvent(alice, bob, 1, 0, nil),
			expected: domain.TransactionTypeTransfer,
		},
		{
			name: "orders matched after transfer is a trade",
			event: transferEvent(alice, bob, 1, 2, []domain.EventLog{
				transferLog(alice, bob, 1, 2),
				ordersMatchedLog(alice, bob, 1000, 4),
			}),
			expected: domain.TransactionTypeTrade,
		},
		{
			name: "orders matched before transfer does not correlate",
			event: transferEvent(alice, bob, 1, 5, []domain.EventLog{
				ordersMatchedLog(carol, alice, 1000, 2),
				transferLog(alice, bob, 1, 5),
			}),
			expected: domain.TransactionTypeTransfer,
		},
		{
			name: "zero-price marketplace airdrop is a transfer",
			event: transferEvent(alice, bob, 1, 0, []domain.EventLog{
				transferLog(alice, bob, 1, 0),
				ordersMatchedLog(alice, bob, 0, 1),
			}),
			expected: domain.TransactionTypeTransfer,
		},
		{
			name: "foreign marketplace contract is ignored",
			event: transferEvent(alice, bob, 1, 0, []domain.EventLog{
				transferLog(alice, bob, 1, 0),
				func() domain.EventLog {
					lg := ordersMatchedLog(alice, bob, 1000, 1)
					lg.Address = "0x000000000000000000000000000000000000dead"
					return lg
				}(),
			}),
			expected: domain.TransactionTypeTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTransfer(tt.event, testContracts()))
		})
	}
}

// The forward scan is bounded; an OrdersMatched log far past the transfer in
// a busy transaction must not correlate.
func TestClassifyTransferScanBound(t *testing.T) {
	siblings := []domain.EventLog{transferLog(alice, bob, 1, 0)}
	for i := uint(1); i <= maxCorrelationDistance; i++ {
		siblings = append(siblings, erc20TransferLog(alice, bob, i))
	}
	siblings = append(siblings, ordersMatchedLog(alice, bob, 1000, maxCorrelationDistance+1))

	ev := transferEvent(alice, bob, 1, 0, siblings)
	assert.Equal(t, domain.TransactionTypeTransfer, ClassifyTransfer(ev, testContracts()))

	// One position closer and it correlates.
	within := append([]domain.EventLog{}, siblings[:len(siblings)-2]...)
	within = append(within, ordersMatchedLog(alice, bob, 1000, maxCorrelationDistance))
	ev = transferEvent(alice, bob, 1, 0, within)
	assert.Equal(t, domain.TransactionTypeTrade, ClassifyTransfer(ev, testContracts()))
}

func TestCollectTransferLegs(t *testing.T) {
	logs := []domain.EventLog{
		erc20TransferLog(alice, bob, 0),
		transferLog(alice, bob, 7, 1),
		func() domain.EventLog {
			lg := transferLog(alice, bob, 8, 2)
			lg.Address = "0x000000000000000000000000000000000000dead"
			return lg
		}(),
		transferLog(alice, carol, 9, 3),
		ordersMatchedLog(alice, bob, 1000, 4),
	}

	legs := CollectTransferLegs(logs, testContracts())
	require.Len(t, legs, 2, "ERC-20 and foreign-contract logs are skipped")

	assert.Equal(t, alice, legs[0].From)
	assert.Equal(t, bob, legs[0].To)
	assert.Equal(t, int64(7), legs[0].TokenID.Int64())
	assert.Equal(t, uint(1), legs[0].LogIndex)

	assert.Equal(t, carol, legs[1].To)
	assert.Equal(t, int64(9), legs[1].TokenID.Int64())
}

func TestCollectTransferLegsEmpty(t *testing.T) {
	assert.Empty(t, CollectTransferLegs(nil, testContracts()))
	assert.Empty(t, CollectTransferLegs([]domain.EventLog{erc20TransferLog(alice, bob, 0)}, testContracts()))
}
