package token

import (
	"errors"
	"math"

	"concertticket/internal/ledger"
)

// Program is the fungible token program.
type Program struct{}

func NewProgram() *Program { return &Program{} }

func (p *Program) Process(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	if len(data) < len(ledger.Discriminator{}) {
		return ErrInvalidInstruction
	}
	switch ledger.Discriminator(data[:8]) {
	case initializeMintDiscriminator:
		var args InitializeMintArgs
		if err := unpack(initializeMintDiscriminator, data, &args); err != nil {
			return err
		}
		return p.initializeMint(ic, accounts, args)
	case initializeAccountDiscriminator:
		var args InitializeAccountArgs
		if err := unpack(initializeAccountDiscriminator, data, &args); err != nil {
			return err
		}
		return p.initializeAccount(ic, accounts, args)
	case mintToDiscriminator:
		var args AmountArgs
		if err := unpack(mintToDiscriminator, data, &args); err != nil {
			return err
		}
		return p.mintTo(ic, accounts, args.Amount)
	case transferDiscriminator:
		var args AmountArgs
		if err := unpack(transferDiscriminator, data, &args); err != nil {
			return err
		}
		return p.transfer(ic, accounts, args.Amount)
	case freezeAccountDiscriminator:
		return p.setFrozen(ic, accounts, true)
	case thawAccountDiscriminator:
		return p.setFrozen(ic, accounts, false)
	}
	return ErrInvalidInstruction
}

func unpack(d ledger.Discriminator, data []byte, v any) error {
	if err := ledger.UnpackData(d, data, v); err != nil {
		return errors.Join(ErrInvalidInstruction, err)
	}
	return nil
}

func requireAccounts(accounts []*ledger.AccountInfo, n int) error {
	if len(accounts) < n {
		return ledger.ErrNotEnoughAccountKeys
	}
	return nil
}

func requireSigner(ic *ledger.InvokeContext, key ledger.Pubkey) error {
	if !ic.IsSigner(key) {
		return ledger.ErrMissingSignature
	}
	return nil
}

func (p *Program) initializeMint(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, args InitializeMintArgs) error {
	if err := requireAccounts(accounts, 1); err != nil {
		return err
	}
	mint := accounts[0]
	if mint.Exists() {
		return ErrAlreadyInUse
	}
	if err := ic.CreateAccount(mint, MintSpace); err != nil {
		return err
	}
	ic.Log("Instruction: InitializeMint")
	return storeMint(mint, &Mint{
		Decimals:        args.Decimals,
		MintAuthority:   args.MintAuthority,
		FreezeAuthority: args.FreezeAuthority,
	})
}

func (p *Program) initializeAccount(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, args InitializeAccountArgs) error {
	if err := requireAccounts(accounts, 2); err != nil {
		return err
	}
	account, mintInfo := accounts[0], accounts[1]
	if account.Exists() {
		return ErrAlreadyInUse
	}
	if _, err := LoadMint(mintInfo); err != nil {
		return err
	}
	if err := ic.CreateAccount(account, AccountSpace); err != nil {
		return err
	}
	ic.Log("Instruction: InitializeAccount")
	return storeTokenAccount(account, &TokenAccount{Mint: mintInfo.Key, Owner: args.Owner})
}

func (p *Program) mintTo(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	mintInfo, destInfo, authority := accounts[0], accounts[1], accounts[2]
	mint, err := LoadMint(mintInfo)
	if err != nil {
		return err
	}
	dest, err := LoadTokenAccount(destInfo)
	if err != nil {
		return err
	}
	if dest.Frozen {
		return ErrAccountFrozen
	}
	if dest.Mint != mintInfo.Key {
		return ErrMintMismatch
	}
	if authority.Key != mint.MintAuthority {
		return ErrOwnerMismatch
	}
	if err := requireSigner(ic, authority.Key); err != nil {
		return err
	}
	if mint.Supply > math.MaxUint64-amount || dest.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	mint.Supply += amount
	dest.Amount += amount

	ic.Log("Instruction: MintTo")
	if err := storeMint(mintInfo, mint); err != nil {
		return err
	}
	return storeTokenAccount(destInfo, dest)
}

func (p *Program) transfer(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	srcInfo, destInfo, authority := accounts[0], accounts[1], accounts[2]
	src, err := LoadTokenAccount(srcInfo)
	if err != nil {
		return err
	}
	dest, err := LoadTokenAccount(destInfo)
	if err != nil {
		return err
	}
	if src.Frozen || dest.Frozen {
		return ErrAccountFrozen
	}
	if src.Mint != dest.Mint {
		return ErrMintMismatch
	}
	if authority.Key != src.Owner {
		return ErrOwnerMismatch
	}
	if err := requireSigner(ic, authority.Key); err != nil {
		return err
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}

	ic.Log("Instruction: Transfer")
	if srcInfo.Key == destInfo.Key {
		return nil
	}
	if dest.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	src.Amount -= amount
	dest.Amount += amount
	if err := storeTokenAccount(srcInfo, src); err != nil {
		return err
	}
	return storeTokenAccount(destInfo, dest)
}

func (p *Program) setFrozen(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, frozen bool) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	accountInfo, mintInfo, authority := accounts[0], accounts[1], accounts[2]
	account, err := LoadTokenAccount(accountInfo)
	if err != nil {
		return err
	}
	mint, err := LoadMint(mintInfo)
	if err != nil {
		return err
	}
	if account.Mint != mintInfo.Key {
		return ErrMintMismatch
	}
	if mint.FreezeAuthority == nil {
		return ErrMintCannotFreeze
	}
	if authority.Key != *mint.FreezeAuthority {
		return ErrOwnerMismatch
	}
	if err := requireSigner(ic, authority.Key); err != nil {
		return err
	}
	if account.Frozen == frozen {
		return ErrInvalidInstruction
	}
	account.Frozen = frozen
	if frozen {
		ic.Log("Instruction: FreezeAccount")
	} else {
		ic.Log("Instruction: ThawAccount")
	}
	return storeTokenAccount(accountInfo, account)
}
