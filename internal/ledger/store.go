package ledger

import "context"

// Store persists accounts and transaction records. Commit must apply
// the accounts and the record atomically, reject a record whose
// signature is already stored with ErrAlreadyProcessed, and reject an
// account whose Version is not the stored one with ErrStaleAccount.
// Committed accounts are stored with Version+1.
type Store interface {
	GetAccount(ctx context.Context, key Pubkey) (*Account, error)
	// GetAccounts returns the accounts that exist; missing keys are
	// omitted from the map.
	GetAccounts(ctx context.Context, keys []Pubkey) (map[Pubkey]*Account, error)
	GetTransaction(ctx context.Context, sig Signature) (*TransactionRecord, error)
	HasTransaction(ctx context.Context, sig Signature) (bool, error)
	Commit(ctx context.Context, accounts []*Account, record *TransactionRecord) error
	// LatestSlot returns the highest recorded slot, 0 for an empty ledger.
	LatestSlot(ctx context.Context) (uint64, error)
	Close() error
}
