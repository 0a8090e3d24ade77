package venues

import (
	"concertticket/internal/ledger"
)

func (p *Program) createTickets(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, args CreateTicketsArgs) error {
	if len(accounts) < 2 {
		return ledger.ErrNotEnoughAccountKeys
	}
	venueInfo, owner := accounts[0], accounts[1]

	if !ic.IsSigner(owner.Key) {
		return ledger.ErrMissingSignature
	}
	authority, err := VenueAuthority(ic.ProgramID(), args.VenueID, args.Bump)
	if err != nil || authority.Address() != venueInfo.Key {
		return ErrInvalidDerivation
	}
	venue, err := loadVenue(ic, venueInfo)
	if err != nil {
		return err
	}
	if venue.Owner != owner.Key {
		return ErrNotOwner
	}
	if args.Name == "" || len(args.Name) > MaxTicketNameLen {
		return ErrInvalidTicketName
	}

	// Names are not deduplicated; purchases match the first entry.
	venue.AvailableTickets = append(venue.AvailableTickets, Ticket{
		Name:      args.Name,
		Price:     args.Price,
		Available: args.Available,
	})
	if err := storeVenue(venueInfo, venue); err != nil {
		return err
	}

	ic.Log("ticket %q added: price %d, available %d", args.Name, args.Price, args.Available)
	return ic.Emit(EventTicketsCreated, TicketsCreatedEvent{
		VenueID:   args.VenueID,
		Venue:     venueInfo.Key,
		Name:      args.Name,
		Price:     args.Price,
		Available: args.Available,
	})
}
