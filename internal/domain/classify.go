package domain

// Category is the mutually-exclusive behavioral classification of an account,
// derived from its lifetime mint/buy/sale counters.
type Category string

const (
	// CategoryOG minted and never traded in either direction.
	CategoryOG Category = "og"
	// CategoryCollector accumulated tokens (minted or bought) and never sold.
	CategoryCollector Category = "collector"
	// CategoryHunter minted and sold without ever buying.
	CategoryHunter Category = "hunter"
	// CategoryFarmer minted, bought and sold.
	CategoryFarmer Category = "farmer"
	// CategoryTrader bought or sold without ever minting.
	CategoryTrader Category = "trader"
	// CategoryNone is an account with no qualifying activity.
	CategoryNone Category = ""
)

// Classify maps lifetime counters to a single category. Evaluation order
// matters: the first matching rule wins, which keeps the categories mutually
// exclusive for every counter combination. It is recomputed from scratch on
// every account mutation rather than patched incrementally.
func Classify(mintCount, buyCount, saleCount uint64) Category {
	switch {
	case mintCount > 0 && buyCount == 0 && saleCount == 0:
		return CategoryOG
	case saleCount == 0 && (mintCount > 0 || buyCount > 0):
		return CategoryCollector
	case mintCount > 0 && buyCount == 0 && saleCount > 0:
		return CategoryHunter
	case mintCount > 0 && buyCount > 0 && saleCount > 0:
		return CategoryFarmer
	case mintCount == 0 && (buyCount > 0 || saleCount > 0):
		return CategoryTrader
	default:
		return CategoryNone
	}
}
