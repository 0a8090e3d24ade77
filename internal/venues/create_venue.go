package venues

import (
	"concertticket/internal/ledger"
	"concertticket/internal/token"
)

func (p *Program) createVenue(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, args CreateVenueArgs) error {
	if len(accounts) < 4 {
		return ledger.ErrNotEnoughAccountKeys
	}
	venueInfo, owner, mintInfo, ownerTokenInfo := accounts[0], accounts[1], accounts[2], accounts[3]

	if !ic.IsSigner(owner.Key) {
		return ledger.ErrMissingSignature
	}
	authority, bump, err := ledger.FindDerivedAuthority(ic.ProgramID(), []byte(VenueSeed), []byte(args.VenueID))
	if err != nil || authority.Address() != venueInfo.Key {
		return ErrInvalidDerivation
	}
	if venueInfo.Exists() {
		return ErrAccountAlreadyExists
	}
	if _, err := token.LoadMint(mintInfo); err != nil {
		return ErrInvalidAccount
	}
	ownerTokenAccount, err := token.LoadTokenAccount(ownerTokenInfo)
	if err != nil {
		return ErrInvalidAccount
	}
	if ownerTokenAccount.Mint != mintInfo.Key {
		return ErrMintMismatch
	}

	if err := ic.CreateAccount(venueInfo, VenueSpace, authority); err != nil {
		return err
	}
	venue := &Venue{
		Owner:             owner.Key,
		AvailableTickets:  []Ticket{},
		TokenMint:         mintInfo.Key,
		OwnerTokenAccount: ownerTokenInfo.Key,
	}
	if err := storeVenue(venueInfo, venue); err != nil {
		return err
	}

	ic.Log("venue %q created at %s (bump %d)", args.VenueID, venueInfo.Key, bump)
	return ic.Emit(EventVenueCreated, VenueCreatedEvent{
		VenueID:           args.VenueID,
		Venue:             venueInfo.Key,
		Owner:             owner.Key,
		TokenMint:         mintInfo.Key,
		OwnerTokenAccount: ownerTokenInfo.Key,
	})
}
