package domain

import "math/big"

// Amount parses a stored numeric(78,0) string into a big integer. Empty
// strings parse as zero; entities always initialize amount columns to "0" so
// malformed values only appear through external tampering, and those also
// degrade to zero rather than corrupting arithmetic.
func Amount(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return x
}

// AmountString renders a big integer into its storage form. Nil renders as
// zero so zero-valued entities never need pointer checks.
func AmountString(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}
