package ledger

import (
	"bytes"
	"fmt"
)

// MaxAccountSpace bounds a single allocation.
const MaxAccountSpace = 10 * 1024

// Account is a unit of ledger state. Data never grows beyond Space and
// only the Owner program may change it.
type Account struct {
	Key   Pubkey `json:"key"`
	Owner Pubkey `json:"owner"`
	Space int    `json:"space"`
	Data  []byte `json:"data"`
	// Version counts committed writes. Stores reject a commit whose
	// Version differs from the stored one.
	Version uint64 `json:"version"`
}

func (a *Account) clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte(nil), a.Data...)
	return &out
}

func (a *Account) equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Key == other.Key && a.Owner == other.Owner && a.Space == other.Space && bytes.Equal(a.Data, other.Data)
}

// AccountInfo is a program's view of one account passed to an
// instruction.
type AccountInfo struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool

	frame *InvokeContext
}

func (i *AccountInfo) account() *Account {
	return i.frame.tx.accounts[i.Key]
}

// Exists reports whether the account has been allocated.
func (i *AccountInfo) Exists() bool {
	return i.account() != nil
}

// Owner returns the owning program, or the zero key for an
// unallocated account.
func (i *AccountInfo) Owner() Pubkey {
	if acct := i.account(); acct != nil {
		return acct.Owner
	}
	return Pubkey{}
}

func (i *AccountInfo) Space() int {
	if acct := i.account(); acct != nil {
		return acct.Space
	}
	return 0
}

// Data returns a copy of the account data.
func (i *AccountInfo) Data() []byte {
	if acct := i.account(); acct != nil {
		return append([]byte(nil), acct.Data...)
	}
	return nil
}

// SetData replaces the account data. The executing program must own
// the account, the instruction must mark it writable and the data must
// fit in the allocated space.
func (i *AccountInfo) SetData(data []byte) error {
	acct := i.account()
	if acct == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, i.Key)
	}
	if !i.frame.writable[i.Key] {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, i.Key)
	}
	if acct.Owner != i.frame.program {
		return fmt.Errorf("%w: %s", ErrExternalAccountModified, i.Key)
	}
	if len(data) > acct.Space {
		return fmt.Errorf("%w: %s needs %d bytes, has %d", ErrAccountDataTooSmall, i.Key, len(data), acct.Space)
	}
	acct.Data = append(acct.Data[:0], data...)
	return nil
}
