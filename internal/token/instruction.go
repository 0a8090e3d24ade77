package token

import (
	"fmt"

	"concertticket/internal/ledger"
)

var (
	initializeMintDiscriminator    = ledger.NewDiscriminator("global:initialize_mint")
	initializeAccountDiscriminator = ledger.NewDiscriminator("global:initialize_account")
	mintToDiscriminator            = ledger.NewDiscriminator("global:mint_to")
	transferDiscriminator          = ledger.NewDiscriminator("global:transfer")
	freezeAccountDiscriminator     = ledger.NewDiscriminator("global:freeze_account")
	thawAccountDiscriminator       = ledger.NewDiscriminator("global:thaw_account")
)

type InitializeMintArgs struct {
	Decimals        uint8          `cbor:"1,keyasint"`
	MintAuthority   ledger.Pubkey  `cbor:"2,keyasint"`
	FreezeAuthority *ledger.Pubkey `cbor:"3,keyasint,omitempty"`
}

type InitializeAccountArgs struct {
	Owner ledger.Pubkey `cbor:"1,keyasint"`
}

type AmountArgs struct {
	Amount uint64 `cbor:"1,keyasint"`
}

type noArgs struct{}

func pack(d ledger.Discriminator, v any) []byte {
	data, err := ledger.PackData(d, v)
	if err != nil {
		panic(fmt.Sprintf("token: encoding fixed instruction args: %v", err))
	}
	return data
}

// InitializeMint creates a mint at the mint address, which must sign.
func InitializeMint(mint, mintAuthority ledger.Pubkey, freezeAuthority *ledger.Pubkey, decimals uint8) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts:  []ledger.AccountMeta{ledger.WritableSigner(mint)},
		Data: pack(initializeMintDiscriminator, InitializeMintArgs{
			Decimals:        decimals,
			MintAuthority:   mintAuthority,
			FreezeAuthority: freezeAuthority,
		}),
	}
}

// InitializeAccount creates a token account of mint held by owner.
func InitializeAccount(account, mint, owner ledger.Pubkey) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts:  []ledger.AccountMeta{ledger.WritableSigner(account), ledger.Readonly(mint)},
		Data:      pack(initializeAccountDiscriminator, InitializeAccountArgs{Owner: owner}),
	}
}

// MintTo issues amount new tokens into destination.
func MintTo(mint, destination, authority ledger.Pubkey, amount uint64) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(mint),
			ledger.Writable(destination),
			ledger.Signer(authority),
		},
		Data: pack(mintToDiscriminator, AmountArgs{Amount: amount}),
	}
}

// Transfer moves amount from source to destination; authority must own
// source.
func Transfer(source, destination, authority ledger.Pubkey, amount uint64) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(source),
			ledger.Writable(destination),
			ledger.Signer(authority),
		},
		Data: pack(transferDiscriminator, AmountArgs{Amount: amount}),
	}
}

func FreezeAccount(account, mint, authority ledger.Pubkey) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts:  []ledger.AccountMeta{ledger.Writable(account), ledger.Readonly(mint), ledger.Signer(authority)},
		Data:      pack(freezeAccountDiscriminator, noArgs{}),
	}
}

func ThawAccount(account, mint, authority ledger.Pubkey) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts:  []ledger.AccountMeta{ledger.Writable(account), ledger.Readonly(mint), ledger.Signer(authority)},
		Data:      pack(thawAccountDiscriminator, noArgs{}),
	}
}
