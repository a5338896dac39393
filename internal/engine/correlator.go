package engine

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covenlabs/coven-indexer/internal/domain"
)

// maxCorrelationDistance bounds the forward scan through sibling logs. A
// single-item sale emits its OrdersMatched log a handful of positions after
// the Transfer; scanning much further risks matching an unrelated sale leg in
// a multi-call transaction.
const maxCorrelationDistance = 16

// ClassifyTransfer determines whether a transfer is a mint, one leg of a
// marketplace trade, or a bare transfer. Trades are detected by forward-
// scanning the sibling logs for the marketplace OrdersMatched signature; an
// absent sibling list degrades to a plain transfer, never to a trade. A
// matched order with zero price (an airdrop routed through the marketplace)
// also classifies as a plain transfer.
func ClassifyTransfer(ev *domain.TransferEvent, contracts Contracts) domain.TransactionType {
	if ev.IsMint() {
		return domain.TransactionTypeMint
	}

	matched := findOrdersMatched(ev.SiblingLogs, ev.LogIndex, contracts)
	if matched == nil {
		return domain.TransactionTypeTransfer
	}
	if domain.DecodeOrdersMatchedPrice(matched.DataBytes()).Sign() == 0 {
		return domain.TransactionTypeTransfer
	}
	return domain.TransactionTypeTrade
}

// findOrdersMatched scans forward through the sibling logs that follow the
// given log index and returns the first marketplace OrdersMatched log, or nil.
// Sibling logs are expected in ascending log-index order.
func findOrdersMatched(logs []domain.EventLog, afterLogIndex uint, contracts Contracts) *domain.EventLog {
	scanned := 0
	for i := range logs {
		lg := &logs[i]
		if lg.LogIndex <= afterLogIndex {
			continue
		}
		if scanned >= maxCorrelationDistance {
			break
		}
		scanned++
		if lg.Topic0() != domain.OrdersMatchedEventSignature {
			continue
		}
		if contracts.MarketplaceAddress != "" && !sameAddress(lg.Address, contracts.MarketplaceAddress) {
			continue
		}
		return lg
	}
	return nil
}

// TransferLeg is a decoded sibling ERC-721 Transfer log.
type TransferLeg struct {
	From     string
	To       string
	TokenID  *big.Int
	LogIndex uint
}

// CollectTransferLegs decodes every ERC-721 Transfer log of the tracked
// collection within the transaction. A marketplace event with more than one
// leg is a batch sale; callers must count all legs rather than processing
// only the first. ERC-20 Transfer logs share the signature but carry three
// topics instead of four and are skipped.
func CollectTransferLegs(logs []domain.EventLog, contracts Contracts) []TransferLeg {
	var legs []TransferLeg
	for i := range logs {
		lg := &logs[i]
		if lg.Topic0() != domain.TransferEventSignature {
			continue
		}
		if len(lg.Topics) != 4 {
			continue
		}
		if contracts.NFTAddress != "" && !sameAddress(lg.Address, contracts.NFTAddress) {
			continue
		}
		legs = append(legs, TransferLeg{
			From:     addressFromTopic(lg.Topic(1)),
			To:       addressFromTopic(lg.Topic(2)),
			TokenID:  new(big.Int).SetBytes(lg.Topic(3).Bytes()),
			LogIndex: lg.LogIndex,
		})
	}
	return legs
}

func addressFromTopic(h common.Hash) string {
	return strings.ToLower(common.BytesToAddress(h.Bytes()).Hex())
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
