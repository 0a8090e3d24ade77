package venues

import (
	"concertticket/internal/ledger"
	"concertticket/internal/token"
)

// purchaseTickets charges the unit price once per purchase regardless
// of quantity. The stored ticket is decremented; the receipt keeps the
// pre-purchase snapshot.
func (p *Program) purchaseTickets(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, args PurchaseTicketsArgs) error {
	if len(accounts) < 6 {
		return ledger.ErrNotEnoughAccountKeys
	}
	venueInfo, receiptInfo, buyer := accounts[0], accounts[1], accounts[2]
	buyerTokenInfo, ownerTokenInfo, tokenProgram := accounts[3], accounts[4], accounts[5]

	venueAuthority, err := VenueAuthority(ic.ProgramID(), args.VenueID, args.Bump)
	if err != nil || venueAuthority.Address() != venueInfo.Key {
		return ErrInvalidDerivation
	}
	venue, err := loadVenue(ic, venueInfo)
	if err != nil {
		return err
	}
	if args.Quantity == 0 {
		return ErrInvalidQuantity
	}
	if !ic.IsSigner(buyer.Key) {
		return ledger.ErrMissingSignature
	}
	receiptAuth, err := receiptAuthority(ic.ProgramID(), args.VenueID, buyer.Key)
	if err != nil || receiptAuth.Address() != receiptInfo.Key {
		return ErrInvalidDerivation
	}
	if receiptInfo.Exists() {
		return ErrAccountAlreadyExists
	}
	if ownerTokenInfo.Key != venue.OwnerTokenAccount {
		return ErrTokenAccountMismatch
	}
	if tokenProgram.Key != token.ProgramID {
		return ErrInvalidAccount
	}

	idx := venue.findTicket(args.Name)
	if idx < 0 {
		return ErrInvalidTicketName
	}
	snapshot := venue.AvailableTickets[idx]
	if args.Quantity > snapshot.Available {
		return ErrTicketsNotAvailable
	}

	// The buyer signs the transfer; the venue authority is offered but
	// no venue-owned account is debited.
	transfer := token.Transfer(buyerTokenInfo.Key, ownerTokenInfo.Key, buyer.Key, snapshot.Price)
	if err := ic.Invoke(transfer, venueAuthority); err != nil {
		return err
	}

	stored := &venue.AvailableTickets[idx]
	if stored.Available < args.Quantity {
		return ErrArithmeticUnderflow
	}
	stored.Available -= args.Quantity

	if err := ic.CreateAccount(receiptInfo, ReceiptSpace, receiptAuth); err != nil {
		return err
	}
	receipt := &PurchasedTickets{
		Ticket:         snapshot,
		Quantity:       args.Quantity,
		DateOfPurchase: ic.Now().Unix(),
	}
	if err := storeReceipt(receiptInfo, receipt); err != nil {
		return err
	}
	if err := storeVenue(venueInfo, venue); err != nil {
		return err
	}

	ic.Log("%s bought %d x %q for %d", buyer.Key, args.Quantity, args.Name, snapshot.Price)
	return ic.Emit(EventTicketsPurchased, TicketsPurchasedEvent{
		VenueID:     args.VenueID,
		Venue:       venueInfo.Key,
		Buyer:       buyer.Key,
		Receipt:     receiptInfo.Key,
		Name:        args.Name,
		Quantity:    args.Quantity,
		AmountPaid:  snapshot.Price,
		Remaining:   stored.Available,
		PurchasedAt: receipt.DateOfPurchase,
	})
}
