package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

func newTradeRecord() *schema.Transaction {
	return &schema.Transaction{
		NFTSalePrice:     "0",
		TotalSalesVolume: "0",
		HighestSalePrice: "0",
		LowestSalePrice:  "0",
		AverageSalePrice: "0",
	}
}

func TestApplySalePrice(t *testing.T) {
	tx := newTradeRecord()

	for _, price := range []int64{10, 30, 20} {
		ApplySalePrice(tx, big.NewInt(price))
	}

	assert.Equal(t, "60", tx.TotalSalesVolume)
	assert.Equal(t, uint64(3), tx.TotalSalesCount)
	assert.Equal(t, "30", tx.HighestSalePrice)
	assert.Equal(t, "10", tx.LowestSalePrice)
	assert.Equal(t, "20", tx.AverageSalePrice)
}

// A genuine zero-price first sale must set the lowest price to zero rather
// than leaving it looking unrecorded.
func TestApplySalePriceZeroFirstSale(t *testing.T) {
	tx := newTradeRecord()

	ApplySalePrice(tx, big.NewInt(0))
	assert.Equal(t, uint64(1), tx.TotalSalesCount)
	assert.Equal(t, "0", tx.LowestSalePrice)
	assert.Equal(t, "0", tx.HighestSalePrice)
	assert.Equal(t, "0", tx.AverageSalePrice)

	ApplySalePrice(tx, big.NewInt(5))
	assert.Equal(t, "0", tx.LowestSalePrice, "zero from the first sale stays the lowest")
	assert.Equal(t, "5", tx.HighestSalePrice)
}

func TestApplySalePriceAverageTruncates(t *testing.T) {
	tx := newTradeRecord()

	ApplySalePrice(tx, big.NewInt(10))
	ApplySalePrice(tx, big.NewInt(5))

	// 15 / 2 truncates toward zero in integer wei arithmetic.
	assert.Equal(t, "7", tx.AverageSalePrice)
}

func TestApplySalePriceLargeAmounts(t *testing.T) {
	tx := newTradeRecord()
	eth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	ApplySalePrice(tx, new(big.Int).Mul(big.NewInt(100), eth))
	ApplySalePrice(tx, new(big.Int).Mul(big.NewInt(300), eth))

	assert.Equal(t, "400000000000000000000", tx.TotalSalesVolume)
	assert.Equal(t, "200000000000000000000", tx.AverageSalePrice)
}
