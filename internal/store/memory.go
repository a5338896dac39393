package store

import (
	"context"

	"github.com/covenlabs/coven-indexer/internal/store/schema"
)

// memoryStore is a map-backed Store used by tests and dry runs. Entities are
// copied on both load and save so callers never share memory with the store,
// matching the semantics of a real database round-trip.
type memoryStore struct {
	accounts     map[string]schema.Account
	tokens       map[string]schema.Token
	transactions map[string]schema.Transaction
	histories    map[string]schema.AccountHistory
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		accounts:     make(map[string]schema.Account),
		tokens:       make(map[string]schema.Token),
		transactions: make(map[string]schema.Transaction),
		histories:    make(map[string]schema.AccountHistory),
	}
}

func (s *memoryStore) GetAccount(_ context.Context, id string) (*schema.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *memoryStore) SaveAccount(_ context.Context, account *schema.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *memoryStore) GetToken(_ context.Context, id string) (*schema.Token, error) {
	token, ok := s.tokens[id]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (s *memoryStore) SaveToken(_ context.Context, token *schema.Token) error {
	s.tokens[token.ID] = *token
	return nil
}

func (s *memoryStore) GetTransaction(_ context.Context, id string) (*schema.Transaction, error) {
	tx, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *memoryStore) SaveTransaction(_ context.Context, tx *schema.Transaction) error {
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *memoryStore) GetAccountHistory(_ context.Context, id string) (*schema.AccountHistory, error) {
	history, ok := s.histories[id]
	if !ok {
		return nil, nil
	}
	return &history, nil
}

func (s *memoryStore) SaveAccountHistory(_ context.Context, history *schema.AccountHistory) error {
	// Histories are immutable; first write wins.
	if _, ok := s.histories[history.ID]; ok {
		return nil
	}
	s.histories[history.ID] = *history
	return nil
}
