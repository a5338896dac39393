package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// GetOrCreateToken loads a registry row by token id, constructing an
// unowned row on first appearance. The registry is keyed by the on-chain
// token id so the current owner of any token is always a single-row lookup.
func (e *Engine) GetOrCreateToken(ctx context.Context, tokenID string) (*schema.Token, error) {
	token, err := e.store.GetToken(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}
	if token != nil {
		return token, nil
	}
	return &schema.Token{ID: tokenID}, nil
}

// SetOwner unconditionally overwrites the owner and provenance. Events are
// presented in chain order (block, then log index), so last-writer-wins
// yields the current owner.
func SetOwner(token *schema.Token, newOwner string, p domain.Provenance) {
	token.Owner = domain.AccountID(newOwner)
	token.LastLogIndex = p.LogIndex
	token.LastTxHash = strings.ToLower(p.TxHash)
	token.LastBlockNumber = p.BlockNumber
	token.LastBlockTimestamp = p.BlockTimestamp
}
