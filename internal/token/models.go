package token

import (
	"errors"

	"concertticket/internal/ledger"
)

// ProgramID is the token program's address.
var ProgramID = ledger.ProgramIDFromName("token")

const (
	MintSpace    = 128
	AccountSpace = 128
)

var (
	mintDiscriminator    = ledger.NewDiscriminator("account:Mint")
	accountDiscriminator = ledger.NewDiscriminator("account:TokenAccount")
)

// Mint describes a fungible token.
type Mint struct {
	Decimals        uint8          `cbor:"1,keyasint" json:"decimals"`
	Supply          uint64         `cbor:"2,keyasint" json:"supply"`
	MintAuthority   ledger.Pubkey  `cbor:"3,keyasint" json:"mint_authority"`
	FreezeAuthority *ledger.Pubkey `cbor:"4,keyasint,omitempty" json:"freeze_authority,omitempty"`
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   ledger.Pubkey `cbor:"1,keyasint" json:"mint"`
	Owner  ledger.Pubkey `cbor:"2,keyasint" json:"owner"`
	Amount uint64        `cbor:"3,keyasint" json:"amount"`
	Frozen bool          `cbor:"4,keyasint" json:"frozen"`
}

// DecodeMint parses mint account data.
func DecodeMint(data []byte) (*Mint, error) {
	var m Mint
	if err := ledger.UnpackData(mintDiscriminator, data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeTokenAccount parses token account data.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	var a TokenAccount
	if err := ledger.UnpackData(accountDiscriminator, data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadTokenAccount decodes a token account passed to an instruction. It
// fails with ErrUninitializedAccount unless the account exists, belongs
// to the token program and holds token account data.
func LoadTokenAccount(info *ledger.AccountInfo) (*TokenAccount, error) {
	if !info.Exists() || info.Owner() != ProgramID {
		return nil, ErrUninitializedAccount
	}
	acct, err := DecodeTokenAccount(info.Data())
	if err != nil {
		return nil, errors.Join(ErrUninitializedAccount, err)
	}
	return acct, nil
}

// LoadMint decodes a mint passed to an instruction.
func LoadMint(info *ledger.AccountInfo) (*Mint, error) {
	if !info.Exists() || info.Owner() != ProgramID {
		return nil, ErrUninitializedAccount
	}
	m, err := DecodeMint(info.Data())
	if err != nil {
		return nil, errors.Join(ErrUninitializedAccount, err)
	}
	return m, nil
}

func storeMint(info *ledger.AccountInfo, m *Mint) error {
	data, err := ledger.PackData(mintDiscriminator, m)
	if err != nil {
		return err
	}
	return info.SetData(data)
}

func storeTokenAccount(info *ledger.AccountInfo, a *TokenAccount) error {
	data, err := ledger.PackData(accountDiscriminator, a)
	if err != nil {
		return err
	}
	return info.SetData(data)
}
