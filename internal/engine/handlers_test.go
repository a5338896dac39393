package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/store"
	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

func newTestEngine() (*Engine, store.Store) {
	st := store.NewMemoryStore()
	return New(st, testContracts()), st
}

func testBatch(txHash string, blockNumber uint64, logs ...domain.EventLog) *domain.TransactionLogBatch {
	return &domain.TransactionLogBatch{
		TxHash:      txHash,
		BlockNumber: blockNumber,
		Timestamp:   time.Unix(1700000000, 0).UTC(),
		Logs:        logs,
	}
}

func TestProcessBatchMint(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xaa01", 100,
		transferLog(domain.ETHEREUM_ZERO_ADDRESS, alice, 7, 0)))
	require.NoError(t, err)

	account, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, uint64(1), account.MintCount)
	assert.Equal(t, uint64(0), account.BuyCount)
	assert.Equal(t, uint64(0), account.SaleCount)
	assert.True(t, account.IsOG)
	assert.False(t, account.IsCollector)

	// The zero address never becomes an account.
	zero, err := st.GetAccount(ctx, domain.ETHEREUM_ZERO_ADDRESS)
	require.NoError(t, err)
	assert.Nil(t, zero)

	token, err := st.GetToken(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, alice, token.Owner)

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xaa01", 0))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, domain.TransactionTypeMint, tx.TransactionType)
	assert.Equal(t, alice, tx.Account)
	assert.Equal(t, "7", tx.ReferenceID)

	history, err := st.GetAccountHistory(ctx, domain.HistoryID(alice, "0xaa01", 0))
	require.NoError(t, err)
	require.NotNil(t, history)
	assert.Equal(t, uint64(1), history.MintCount)
	assert.Equal(t, domain.CategoryOG, history.Category)
}

func TestProcessBatchPlainTransfer(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xaa02", 101,
		transferLog(alice, bob, 7, 3)))
	require.NoError(t, err)

	// Ownership moves; no counters besides activity bookkeeping change.
	token, err := st.GetToken(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, bob, token.Owner)

	for _, address := range []string{alice, bob} {
		account, err := st.GetAccount(ctx, address)
		require.NoError(t, err)
		require.NotNil(t, account, address)
		assert.Equal(t, uint64(0), account.MintCount, address)
		assert.Equal(t, uint64(0), account.BuyCount, address)
		assert.Equal(t, uint64(0), account.SaleCount, address)
		assert.Equal(t, "0xaa02", account.LastTxHash, address)

		history, err := st.GetAccountHistory(ctx, domain.HistoryID(address, "0xaa02", 3))
		require.NoError(t, err)
		assert.NotNil(t, history, address)
	}

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xaa02", 3))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, domain.TransactionTypeTransfer, tx.TransactionType)
}

func TestProcessBatchTrade(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xbb01", 102,
		transferLog(alice, bob, 7, 3),
		ordersMatchedLog(alice, bob, 1000, 5)))
	require.NoError(t, err)

	// Exactly one transaction record for the whole trade, keyed by the
	// OrdersMatched leg.
	transferTx, err := st.GetTransaction(ctx, domain.GlobalID("0xbb01", 3))
	require.NoError(t, err)
	assert.Nil(t, transferTx, "the transfer leg of a trade writes no record")

	tradeTx, err := st.GetTransaction(ctx, domain.GlobalID("0xbb01", 5))
	require.NoError(t, err)
	require.NotNil(t, tradeTx)
	assert.Equal(t, domain.TransactionTypeTrade, tradeTx.TransactionType)
	assert.Equal(t, bob, tradeTx.Buyer)
	assert.Equal(t, alice, tradeTx.Seller)
	assert.Equal(t, "7", tradeTx.ReferenceID)
	assert.Equal(t, "1000", tradeTx.NFTSalePrice)
	assert.Equal(t, uint64(1), tradeTx.TotalNFTsSold)
	assert.Equal(t, "1000", tradeTx.TotalSalesVolume)
	assert.Equal(t, uint64(1), tradeTx.TotalSalesCount)
	assert.Equal(t, "1000", tradeTx.HighestSalePrice)
	assert.Equal(t, "1000", tradeTx.LowestSalePrice)
	assert.Equal(t, "1000", tradeTx.AverageSalePrice)

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.Equal(t, uint64(1), buyer.BuyCount)
	assert.Equal(t, "1000", buyer.TotalAmountBought)
	assert.Equal(t, "1000", buyer.TotalAmountBalance)
	assert.True(t, buyer.IsCollector)

	seller, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, seller)
	assert.Equal(t, uint64(1), seller.SaleCount)
	assert.Equal(t, "1000", seller.TotalAmountSold)
	assert.Equal(t, "0", seller.TotalAmountBalance, "balance floors at zero")
	assert.True(t, seller.IsTrader)

	token, err := st.GetToken(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, bob, token.Owner)
}

// Redelivering an already-applied batch must be a no-op.
func TestProcessBatchRedelivery(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	b := testBatch("0xbb02", 103,
		transferLog(alice, bob, 7, 3),
		ordersMatchedLog(alice, bob, 1000, 5))

	require.NoError(t, e.ProcessBatch(ctx, b))

	buyerBefore, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	sellerBefore, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	txBefore, err := st.GetTransaction(ctx, domain.GlobalID("0xbb02", 5))
	require.NoError(t, err)

	require.NoError(t, e.ProcessBatch(ctx, b))

	buyerAfter, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	sellerAfter, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	txAfter, err := st.GetTransaction(ctx, domain.GlobalID("0xbb02", 5))
	require.NoError(t, err)

	assert.Equal(t, buyerBefore, buyerAfter)
	assert.Equal(t, sellerBefore, sellerAfter)
	assert.Equal(t, txBefore, txAfter)
}

// flakyAccountStore fails one SaveAccount call by position, simulating a
// crash after the transaction record was persisted but before the accounts.
type flakyAccountStore struct {
	store.Store
	calls  int
	failAt int
}

func (s *flakyAccountStore) SaveAccount(ctx context.Context, account *schema.Account) error {
	s.calls++
	if s.calls == s.failAt {
		return errors.New("connection reset")
	}
	return s.Store.SaveAccount(ctx, account)
}

// Redelivery after a partial failure: the trade record was saved, the account
// save failed, the message is redelivered. The sale must not fold into the
// record's aggregates a second time.
func TestProcessBatchRedeliveryAfterPartialFailure(t *testing.T) {
	// The transfer leg saves both accounts (calls 1 and 2); the third call is
	// the buyer save inside the matched-order leg, after its record save.
	st := &flakyAccountStore{Store: store.NewMemoryStore(), failAt: 3}
	e := New(st, testContracts())
	ctx := context.Background()

	b := testBatch("0xbb03", 109,
		transferLog(alice, bob, 7, 3),
		ordersMatchedLog(alice, bob, 1000, 5))

	require.Error(t, e.ProcessBatch(ctx, b), "the first delivery fails mid-handler")
	require.NoError(t, e.ProcessBatch(ctx, b))

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xbb03", 5))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "1000", tx.TotalSalesVolume)
	assert.Equal(t, uint64(1), tx.TotalSalesCount)
	assert.Equal(t, "1000", tx.HighestSalePrice)
	assert.Equal(t, "1000", tx.AverageSalePrice)

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.Equal(t, uint64(1), buyer.BuyCount)
	assert.Equal(t, "1000", buyer.TotalAmountBought)
}

func TestProcessBatchBurn(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xcc01", 104,
		transferLog(alice, domain.ETHEREUM_ZERO_ADDRESS, 7, 0)))
	require.NoError(t, err)

	token, err := st.GetToken(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, token.Owner)

	zero, err := st.GetAccount(ctx, domain.ETHEREUM_ZERO_ADDRESS)
	require.NoError(t, err)
	assert.Nil(t, zero)

	sender, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, sender)

	history, err := st.GetAccountHistory(ctx, domain.HistoryID(alice, "0xcc01", 0))
	require.NoError(t, err)
	assert.NotNil(t, history, "the burn guard keys on the sender")
}

// A zero-price matched order is an airdrop routed through the marketplace:
// the transfer leg records it and no trade economics apply.
func TestProcessBatchZeroPriceAirdrop(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xdd01", 105,
		transferLog(alice, bob, 7, 0),
		ordersMatchedLog(alice, bob, 0, 1)))
	require.NoError(t, err)

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xdd01", 0))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, domain.TransactionTypeTransfer, tx.TransactionType)

	tradeTx, err := st.GetTransaction(ctx, domain.GlobalID("0xdd01", 1))
	require.NoError(t, err)
	assert.Nil(t, tradeTx)

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.Equal(t, uint64(0), buyer.BuyCount)
}

// An OrdersMatched with no correlatable transfer leg is skipped whole rather
// than recorded half-populated.
func TestProcessBatchOrdersMatchedWithoutLegs(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xee01", 106,
		ordersMatchedLog(alice, bob, 1000, 0)))
	require.NoError(t, err)

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xee01", 0))
	require.NoError(t, err)
	assert.Nil(t, tx)

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	assert.Nil(t, buyer)
}

// A batch sale: one OrdersMatched covering two transfer legs counts each
// token but a single buy/sale.
func TestProcessBatchMultiLegSale(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	err := e.ProcessBatch(ctx, testBatch("0xff01", 107,
		transferLog(alice, bob, 1, 0),
		transferLog(alice, bob, 2, 1),
		ordersMatchedLog(alice, bob, 500, 2)))
	require.NoError(t, err)

	tx, err := st.GetTransaction(ctx, domain.GlobalID("0xff01", 2))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, uint64(2), tx.TotalNFTsSold)
	assert.Equal(t, "1", tx.ReferenceID, "reference is the first leg's token")

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.Equal(t, uint64(1), buyer.BuyCount)

	for _, tokenID := range []string{"1", "2"} {
		token, err := st.GetToken(ctx, tokenID)
		require.NoError(t, err)
		require.NotNil(t, token, tokenID)
		assert.Equal(t, bob, token.Owner, tokenID)
	}
}

func TestProcessBatchMissingTxHash(t *testing.T) {
	e, _ := newTestEngine()

	err := e.ProcessBatch(context.Background(), testBatch("", 108,
		transferLog(alice, bob, 7, 0)))
	assert.ErrorIs(t, err, domain.ErrMissingTxHash)
}

// A full lifecycle across transactions: mint, then sell. The minter becomes a
// hunter, the buyer a collector; classification flags stay mutually exclusive.
func TestAccountLifecycleClassification(t *testing.T) {
	e, st := newTestEngine()
	ctx := context.Background()

	require.NoError(t, e.ProcessBatch(ctx, testBatch("0xaa10", 200,
		transferLog(domain.ETHEREUM_ZERO_ADDRESS, alice, 7, 0))))
	require.NoError(t, e.ProcessBatch(ctx, testBatch("0xaa11", 201,
		transferLog(alice, bob, 7, 0),
		ordersMatchedLog(alice, bob, 1000, 1))))

	minter, err := st.GetAccount(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, minter)
	assert.Equal(t, uint64(1), minter.MintCount)
	assert.Equal(t, uint64(1), minter.SaleCount)
	assert.True(t, minter.IsHunter)
	assert.False(t, minter.IsOG)

	buyer, err := st.GetAccount(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, buyer)
	assert.True(t, buyer.IsCollector)

	flags := []bool{minter.IsOG, minter.IsCollector, minter.IsHunter, minter.IsFarmer, minter.IsTrader}
	set := 0
	for _, flag := range flags {
		if flag {
			set++
		}
	}
	assert.Equal(t, 1, set, "exactly one classification flag is set")
}
