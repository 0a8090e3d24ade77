package venues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/constants"
	"concertticket/pkg/cache"
)

// AccountReader is the ledger read surface the repository needs.
type AccountReader interface {
	GetAccount(ctx context.Context, key ledger.Pubkey) (*ledger.Account, error)
}

// Repository reads decoded venue program accounts.
type Repository interface {
	GetVenue(ctx context.Context, address ledger.Pubkey) (*Venue, error)
	GetReceipt(ctx context.Context, address ledger.Pubkey) (*PurchasedTickets, error)
}

var (
	ErrVenueNotFound   = errors.New("venue not found")
	ErrReceiptNotFound = errors.New("receipt not found")
)

type repository struct {
	ledger AccountReader
	cache  cache.Service
	ttl    time.Duration
}

// NewRepository creates a repository reading through the cache. Entries
// are dropped by the commit hook whenever the account is written.
func NewRepository(reader AccountReader, c cache.Service, ttl time.Duration) Repository {
	if ttl <= 0 {
		ttl = constants.TTL_ACCOUNT_VIEW
	}
	return &repository{ledger: reader, cache: c, ttl: ttl}
}

func (r *repository) GetVenue(ctx context.Context, address ledger.Pubkey) (*Venue, error) {
	var v Venue
	err := r.cache.GetOrSet(ctx, constants.BuildVenueKey(address.String()), r.ttl, func() (interface{}, error) {
		data, err := r.programAccount(ctx, address, ErrVenueNotFound)
		if err != nil {
			return nil, err
		}
		venue, err := DecodeVenue(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVenueNotFound, err)
		}
		return venue, nil
	}, &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) GetReceipt(ctx context.Context, address ledger.Pubkey) (*PurchasedTickets, error) {
	var p PurchasedTickets
	err := r.cache.GetOrSet(ctx, constants.BuildReceiptKey(address.String()), r.ttl, func() (interface{}, error) {
		data, err := r.programAccount(ctx, address, ErrReceiptNotFound)
		if err != nil {
			return nil, err
		}
		receipt, err := DecodeReceipt(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReceiptNotFound, err)
		}
		return receipt, nil
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// programAccount loads address and checks the venue program owns it.
func (r *repository) programAccount(ctx context.Context, address ledger.Pubkey, notFound error) ([]byte, error) {
	acc, err := r.ledger.GetAccount(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to load account %s: %w", address, err)
	}
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: account %s is owned by %s", notFound, address, acc.Owner)
	}
	return acc.Data, nil
}
