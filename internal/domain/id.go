package domain

import (
	"fmt"
	"strings"
)

// GlobalID derives the identifier for log-scoped entities (transactions,
// per-event records) from the enclosing transaction hash and the log index.
// The function is pure; redelivering the same event yields the same id.
func GlobalID(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}

// AccountID normalizes an address into the account registry key. Accounts are
// keyed by lowercase hex address for the whole entity lifetime.
func AccountID(address string) string {
	return strings.ToLower(address)
}

// HistoryID keys an append-only account snapshot to one event.
func HistoryID(address string, txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%s", AccountID(address), GlobalID(txHash, logIndex))
}
