package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/logger"
	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// OnTransfer processes one ERC-721 Transfer event: classifies it against its
// sibling logs, updates token ownership, applies mint/transfer bookkeeping to
// both accounts and appends their history snapshots. Sale economics for
// trades are deliberately absent here; they are applied once, by the
// OrdersMatched leg of the same transaction.
func (e *Engine) OnTransfer(ctx context.Context, ev *domain.TransferEvent) error {
	if ev.TxHash == "" {
		return domain.ErrMissingTxHash
	}
	if !ev.Valid() {
		return fmt.Errorf("malformed transfer event %s", domain.GlobalID(ev.TxHash, ev.LogIndex))
	}

	prov := ev.Provenance()

	// The recipient's snapshot marks this event as applied. Burns key the
	// guard on the sender instead; the zero address is not an account.
	primary := ev.To
	if ev.IsBurn() {
		primary = ev.From
	}
	applied, err := e.applied(ctx, primary, prov)
	if err != nil {
		return err
	}
	if applied {
		logger.DebugCtx(ctx, "transfer already applied, skipping",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex))
		return nil
	}

	if len(ev.SiblingLogs) == 0 && !ev.IsMint() {
		logger.WarnCtx(ctx, "transfer without receipt logs, degrading to plain transfer",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex))
	}
	kind := ClassifyTransfer(ev, e.contracts)

	token, err := e.GetOrCreateToken(ctx, ev.TokenID.String())
	if err != nil {
		return err
	}
	SetOwner(token, ev.To, prov)

	accounts := make([]*schema.Account, 0, 2)
	if !ev.IsMint() {
		sender, err := e.GetOrCreateAccount(ctx, ev.From)
		if err != nil {
			return err
		}
		accounts = append(accounts, sender)
	}
	var recipient *schema.Account
	if !ev.IsBurn() {
		recipient, err = e.GetOrCreateAccount(ctx, ev.To)
		if err != nil {
			return err
		}
		accounts = append(accounts, recipient)
	}

	var record *schema.Transaction
	switch kind {
	case domain.TransactionTypeMint:
		if recipient != nil && !Applied(recipient, prov) {
			ApplyMint(recipient)
		}
		record = newTransaction(domain.TransactionTypeMint, prov)
		record.Account = domain.AccountID(ev.To)
		record.ReferenceID = ev.TokenID.String()
	case domain.TransactionTypeTrade:
		// The transaction record, aggregates and buy/sell counters for this
		// sale are written by OnOrdersMatched; duplicating them here would
		// double-count the trade.
	default:
		record = newTransaction(domain.TransactionTypeTransfer, prov)
		record.Account = domain.AccountID(ev.To)
		record.ReferenceID = ev.TokenID.String()
	}

	for _, account := range accounts {
		if !Applied(account, prov) {
			Touch(account, prov)
		}
		Reclassify(account)
	}

	if err := e.store.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token %s: %w", token.ID, err)
	}
	if record != nil {
		if err := e.store.SaveTransaction(ctx, record); err != nil {
			return fmt.Errorf("failed to persist transaction %s: %w", record.ID, err)
		}
	}
	for _, account := range accounts {
		if err := e.store.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to persist account %s: %w", account.ID, err)
		}
	}
	// Histories go last: their presence is the applied marker, so a replay
	// after a partial failure re-runs the guarded mutations above.
	for _, account := range accounts {
		if err := e.store.SaveAccountHistory(ctx, Snapshot(account, prov)); err != nil {
			return fmt.Errorf("failed to persist account history for %s: %w", account.ID, err)
		}
	}

	return nil
}

// OnOrdersMatched processes one marketplace sale event: recovers the token id
// and, if needed, the counterparties from the sibling Transfer logs, then
// applies the sale economics - the trade transaction record, its running
// aggregates and the buy/sell ledger mutations - exactly once.
func (e *Engine) OnOrdersMatched(ctx context.Context, ev *domain.OrdersMatchedEvent) error {
	if ev.TxHash == "" {
		return domain.ErrMissingTxHash
	}
	if !ev.Valid() {
		return fmt.Errorf("malformed orders matched event %s", domain.GlobalID(ev.TxHash, ev.LogIndex))
	}

	// Zero-price matched orders are airdrops routed through the marketplace;
	// the transfer leg records those, same as ClassifyTransfer.
	if ev.Price.Sign() == 0 {
		logger.DebugCtx(ctx, "zero-price matched order, recorded by its transfer leg",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex))
		return nil
	}

	prov := ev.Provenance()

	legs := CollectTransferLegs(ev.SiblingLogs, e.contracts)
	if len(legs) == 0 {
		// Omit over corrupt: without a correlated transfer there is no token
		// id, so no half-populated trade record is written.
		logger.WarnCtx(ctx, "orders matched without correlatable transfer log, skipping",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex),
			zap.Error(domain.ErrTokenNotCorrelated))
		return nil
	}

	buyer := ev.Taker
	if isZeroAddress(buyer) {
		buyer = legs[0].To
	}
	seller := ev.Maker
	if isZeroAddress(seller) {
		seller = legs[0].From
	}
	if isZeroAddress(seller) || isZeroAddress(buyer) {
		logger.WarnCtx(ctx, "counterparty not recoverable for matched order, skipping",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex),
			zap.Error(domain.ErrSellerNotFound))
		return nil
	}

	applied, err := e.applied(ctx, buyer, prov)
	if err != nil {
		return err
	}
	if applied {
		logger.DebugCtx(ctx, "matched order already applied, skipping",
			zap.String("txHash", ev.TxHash), zap.Uint("logIndex", ev.LogIndex))
		return nil
	}

	buyerAccount, err := e.GetOrCreateAccount(ctx, buyer)
	if err != nil {
		return err
	}
	sellerAccount := buyerAccount
	if domain.AccountID(seller) != buyerAccount.ID {
		sellerAccount, err = e.GetOrCreateAccount(ctx, seller)
		if err != nil {
			return err
		}
	}

	// One OrdersMatched log maps to exactly one trade record, so the record
	// is rebuilt from scratch and the save below is a pure overwrite. Loading
	// and folding into a previously saved row would double-count the sale
	// when the message is redelivered after a partial failure.
	record := newTransaction(domain.TransactionTypeTrade, prov)
	record.Account = buyerAccount.ID
	record.ReferenceID = legs[0].TokenID.String()
	record.Buyer = buyerAccount.ID
	record.Seller = sellerAccount.ID
	record.NFTSalePrice = domain.AmountString(ev.Price)
	record.TotalNFTsSold = uint64(len(legs))

	// Single canonical aggregate invocation per trade.
	ApplySalePrice(record, ev.Price)

	if !Applied(buyerAccount, prov) {
		ApplyBuy(buyerAccount, ev.Price)
		Touch(buyerAccount, prov)
	}
	if !Applied(sellerAccount, prov) {
		ApplySale(sellerAccount, ev.Price)
		Touch(sellerAccount, prov)
	}
	Reclassify(buyerAccount)
	Reclassify(sellerAccount)

	if err := e.store.SaveTransaction(ctx, record); err != nil {
		return fmt.Errorf("failed to persist transaction %s: %w", record.ID, err)
	}
	if err := e.store.SaveAccount(ctx, buyerAccount); err != nil {
		return fmt.Errorf("failed to persist account %s: %w", buyerAccount.ID, err)
	}
	if sellerAccount != buyerAccount {
		if err := e.store.SaveAccount(ctx, sellerAccount); err != nil {
			return fmt.Errorf("failed to persist account %s: %w", sellerAccount.ID, err)
		}
	}
	// Histories go last: their presence is the applied marker for replays.
	if err := e.store.SaveAccountHistory(ctx, Snapshot(buyerAccount, prov)); err != nil {
		return fmt.Errorf("failed to persist account history for %s: %w", buyerAccount.ID, err)
	}
	if sellerAccount != buyerAccount {
		if err := e.store.SaveAccountHistory(ctx, Snapshot(sellerAccount, prov)); err != nil {
			return fmt.Errorf("failed to persist account history for %s: %w", sellerAccount.ID, err)
		}
	}

	return nil
}

// applied reports whether a history row already exists for this (account,
// event) pair, which marks the event as fully processed.
func (e *Engine) applied(ctx context.Context, address string, p domain.Provenance) (bool, error) {
	history, err := e.store.GetAccountHistory(ctx, domain.HistoryID(address, p.TxHash, p.LogIndex))
	if err != nil {
		return false, fmt.Errorf("failed to check event application: %w", err)
	}
	return history != nil, nil
}

// newTransaction constructs a zero-initialized transaction record keyed by
// the event's global id.
func newTransaction(kind domain.TransactionType, p domain.Provenance) *schema.Transaction {
	return &schema.Transaction{
		ID:               domain.GlobalID(p.TxHash, p.LogIndex),
		TransactionType:  kind,
		NFTSalePrice:     "0",
		TotalSalesVolume: "0",
		HighestSalePrice: "0",
		LowestSalePrice:  "0",
		AverageSalePrice: "0",
		LogIndex:         p.LogIndex,
		TxHash:           strings.ToLower(p.TxHash),
		BlockNumber:      p.BlockNumber,
		BlockTimestamp:   p.BlockTimestamp,
	}
}

func isZeroAddress(address string) bool {
	return address == "" || strings.EqualFold(address, domain.ETHEREUM_ZERO_ADDRESS)
}
