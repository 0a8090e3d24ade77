package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the ledger in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[Pubkey]*Account
	transactions map[Signature]*TransactionRecord
	latestSlot   uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[Pubkey]*Account),
		transactions: make(map[Signature]*TransactionRecord),
	}
}

func (s *MemoryStore) GetAccount(_ context.Context, key Pubkey) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[key]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.clone(), nil
}

func (s *MemoryStore) GetAccounts(_ context.Context, keys []Pubkey) (map[Pubkey]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Pubkey]*Account, len(keys))
	for _, key := range keys {
		if acct, ok := s.accounts[key]; ok {
			out[key] = acct.clone()
		}
	}
	return out, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, sig Signature) (*TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transactions[sig]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) HasTransaction(_ context.Context, sig Signature) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.transactions[sig]
	return ok, nil
}

func (s *MemoryStore) Commit(_ context.Context, accounts []*Account, record *TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[record.Signature]; ok {
		return ErrAlreadyProcessed
	}
	for _, acct := range accounts {
		var stored uint64
		if cur, ok := s.accounts[acct.Key]; ok {
			stored = cur.Version
		}
		if acct.Version != stored {
			return fmt.Errorf("%w: %s", ErrStaleAccount, acct.Key)
		}
	}
	for _, acct := range accounts {
		cp := acct.clone()
		cp.Version++
		s.accounts[acct.Key] = cp
	}
	cp := *record
	s.transactions[record.Signature] = &cp
	s.latestSlot = max(s.latestSlot, record.Slot)
	return nil
}

func (s *MemoryStore) LatestSlot(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestSlot, nil
}

func (s *MemoryStore) Close() error { return nil }
