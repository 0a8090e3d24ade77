package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/constants"
	"concertticket/internal/token"
	"concertticket/pkg/cache"
	applogger "concertticket/pkg/logger"
)

// Ledger is the runtime surface the gateway needs.
type Ledger interface {
	Execute(ctx context.Context, tx *ledger.Transaction) (*ledger.TransactionRecord, error)
	GetAccount(ctx context.Context, key ledger.Pubkey) (*ledger.Account, error)
	GetTransaction(ctx context.Context, sig ledger.Signature) (*ledger.TransactionRecord, error)
	Programs() []ledger.ProgramInfo
}

var ErrNotTokenAccount = errors.New("account is not a token account")

// Commit hooks run after the transaction is final, so invalidation must
// outlive a cancelled request.
const invalidateTimeout = 5 * time.Second

type Service interface {
	Submit(ctx context.Context, tx *ledger.Transaction) (*ledger.TransactionRecord, error)
	GetTransaction(ctx context.Context, sig ledger.Signature) (*ledger.TransactionRecord, error)
	GetAccount(ctx context.Context, address ledger.Pubkey) (*ledger.Account, error)
	GetTokenAccount(ctx context.Context, address ledger.Pubkey) (*TokenAccountResponse, error)
	Programs() []ledger.ProgramInfo
}

type service struct {
	ledger Ledger
	cache  cache.Service
	ttl    time.Duration
}

func NewService(l Ledger, c cache.Service, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = constants.TTL_ACCOUNT_VIEW
	}
	return &service{ledger: l, cache: c, ttl: ttl}
}

// Submit executes tx. A failed transaction still returns its record
// alongside the program error.
func (s *service) Submit(ctx context.Context, tx *ledger.Transaction) (*ledger.TransactionRecord, error) {
	return s.ledger.Execute(ctx, tx)
}

// GetTransaction serves records from cache; they never change once stored.
func (s *service) GetTransaction(ctx context.Context, sig ledger.Signature) (*ledger.TransactionRecord, error) {
	var record ledger.TransactionRecord
	err := s.cache.GetOrSet(ctx, constants.BuildTransactionKey(sig.String()), constants.TTL_IMMUTABLE, func() (interface{}, error) {
		return s.ledger.GetTransaction(ctx, sig)
	}, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *service) GetAccount(ctx context.Context, address ledger.Pubkey) (*ledger.Account, error) {
	var acc ledger.Account
	err := s.cache.GetOrSet(ctx, constants.BuildAccountKey(address.String()), s.ttl, func() (interface{}, error) {
		return s.ledger.GetAccount(ctx, address)
	}, &acc)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *service) GetTokenAccount(ctx context.Context, address ledger.Pubkey) (*TokenAccountResponse, error) {
	var resp TokenAccountResponse
	err := s.cache.GetOrSet(ctx, constants.BuildTokenAccountKey(address.String()), s.ttl, func() (interface{}, error) {
		acc, err := s.ledger.GetAccount(ctx, address)
		if err != nil {
			return nil, err
		}
		if acc.Owner != token.ProgramID {
			return nil, ErrNotTokenAccount
		}
		ta, err := token.DecodeTokenAccount(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotTokenAccount, err)
		}
		return &TokenAccountResponse{
			Address: address,
			Mint:    ta.Mint,
			Owner:   ta.Owner,
			Amount:  ta.Amount,
			Frozen:  ta.Frozen,
		}, nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) Programs() []ledger.ProgramInfo {
	return s.ledger.Programs()
}

// InvalidateOnCommit returns a commit hook dropping every cached view of
// the accounts a transaction wrote.
func InvalidateOnCommit(c cache.Service) ledger.CommitHook {
	logger := applogger.GetDefault().WithComponent("cache")
	return func(ctx context.Context, record *ledger.TransactionRecord) {
		if len(record.Written) == 0 {
			return
		}
		keys := make([]string, 0, len(record.Written)*4)
		for _, addr := range record.Written {
			keys = append(keys, constants.AccountViewKeys(addr.String())...)
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
		defer cancel()
		if err := c.Delete(ctx, keys...); err != nil {
			logger.Warn("Cache invalidation failed", "signature", record.Signature.String(), "error", err)
		}
	}
}
