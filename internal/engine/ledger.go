package engine

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// GetOrCreateAccount loads an account by address, constructing a zeroed
// record on first appearance. Every counter and amount is non-optional and
// zero-initialized here, so downstream code never needs nil checks or
// null coalescing. The call is idempotent: without an intervening mutation,
// repeated calls return identical state.
func (e *Engine) GetOrCreateAccount(ctx context.Context, address string) (*schema.Account, error) {
	id := domain.AccountID(address)
	account, err := e.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}
	if account != nil {
		return account, nil
	}
	return &schema.Account{
		ID:                 id,
		TotalAmountBought:  "0",
		TotalAmountSold:    "0",
		TotalAmountBalance: "0",
	}, nil
}

// ApplyMint increments the mint counter. Mints carry no price, so the volume
// fields are untouched.
func ApplyMint(account *schema.Account) {
	account.MintCount++
}

// ApplyBuy increments the buy counter and folds the price into the bought
// total and the running balance. Callers must invoke this at most once per
// (account, event); the ledger itself does not deduplicate by event id.
func ApplyBuy(account *schema.Account, price *big.Int) {
	account.BuyCount++

	bought := domain.Amount(account.TotalAmountBought)
	account.TotalAmountBought = domain.AmountString(bought.Add(bought, price))

	balance := domain.Amount(account.TotalAmountBalance)
	account.TotalAmountBalance = domain.AmountString(balance.Add(balance, price))
}

// ApplySale increments the sale counter and folds the price into the sold
// total. The balance decreases by the sale price, floored at zero to keep the
// column non-negative.
func ApplySale(account *schema.Account, price *big.Int) {
	account.SaleCount++

	sold := domain.Amount(account.TotalAmountSold)
	account.TotalAmountSold = domain.AmountString(sold.Add(sold, price))

	balance := domain.Amount(account.TotalAmountBalance)
	balance.Sub(balance, price)
	if balance.Sign() < 0 {
		balance.SetInt64(0)
	}
	account.TotalAmountBalance = domain.AmountString(balance)
}

// Reclassify recomputes the classification flags from the counters. The
// flags are never set independently; they exist only as a projection of
// Classify over the current counter values.
func Reclassify(account *schema.Account) {
	category := domain.Classify(account.MintCount, account.BuyCount, account.SaleCount)
	account.IsOG = category == domain.CategoryOG
	account.IsCollector = category == domain.CategoryCollector
	account.IsHunter = category == domain.CategoryHunter
	account.IsFarmer = category == domain.CategoryFarmer
	account.IsTrader = category == domain.CategoryTrader
}

// Touch records the event that last mutated the account.
func Touch(account *schema.Account, p domain.Provenance) {
	account.LastLogIndex = p.LogIndex
	account.LastTxHash = strings.ToLower(p.TxHash)
	account.LastBlockNumber = p.BlockNumber
	account.LastBlockTimestamp = p.BlockTimestamp
}

// Applied reports whether the account's last-seen provenance already matches
// this event. Together with the history-row guard it makes redelivery after a
// partial failure safe: counters touched by this exact event are never
// re-incremented.
func Applied(account *schema.Account, p domain.Provenance) bool {
	return account.LastTxHash == strings.ToLower(p.TxHash) && account.LastLogIndex == p.LogIndex
}

// Snapshot builds the append-only history row for an account at one event.
func Snapshot(account *schema.Account, p domain.Provenance) *schema.AccountHistory {
	return &schema.AccountHistory{
		ID:                 domain.HistoryID(account.ID, p.TxHash, p.LogIndex),
		AccountID:          account.ID,
		MintCount:          account.MintCount,
		BuyCount:           account.BuyCount,
		SaleCount:          account.SaleCount,
		TotalAmountBought:  account.TotalAmountBought,
		TotalAmountSold:    account.TotalAmountSold,
		TotalAmountBalance: account.TotalAmountBalance,
		Category:           domain.Classify(account.MintCount, account.BuyCount, account.SaleCount),
		LogIndex:           p.LogIndex,
		TxHash:             strings.ToLower(p.TxHash),
		BlockNumber:        p.BlockNumber,
		BlockTimestamp:     p.BlockTimestamp,
	}
}
