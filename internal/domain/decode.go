package domain

import "math/big"

// DecodeOrdersMatchedPrice extracts the uint256 sale price from an
// OrdersMatched data payload. The non-indexed fields are buyHash, sellHash
// and price, 32 bytes each; short payloads decode as zero.
func DecodeOrdersMatchedPrice(data []byte) *big.Int {
	if len(data) < 96 {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(data[64:96])
}
