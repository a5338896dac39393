package engine

import (
	"math/big"

	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// ApplySalePrice folds one sale price into the transaction's running
// aggregates. It must execute exactly once per correlated trade; the
// OrdersMatched handler is the single canonical invocation point, so a trade
// observed from both its Transfer and OrdersMatched legs is never counted
// twice.
func ApplySalePrice(tx *schema.Transaction, price *big.Int) {
	volume := domain.Amount(tx.TotalSalesVolume)
	volume.Add(volume, price)
	tx.TotalSalesVolume = domain.AmountString(volume)

	// TotalSalesCount doubles as the "has a price been recorded" marker, so
	// a genuine zero-price sale is distinguishable from an empty record.
	first := tx.TotalSalesCount == 0
	tx.TotalSalesCount++

	if highest := domain.Amount(tx.HighestSalePrice); first || price.Cmp(highest) > 0 {
		tx.HighestSalePrice = domain.AmountString(price)
	}
	if lowest := domain.Amount(tx.LowestSalePrice); first || price.Cmp(lowest) < 0 {
		tx.LowestSalePrice = domain.AmountString(price)
	}

	average := new(big.Int).Div(volume, new(big.Int).SetUint64(tx.TotalSalesCount))
	tx.AverageSalePrice = domain.AmountString(average)
}
