package venues

import (
	"errors"

	"concertticket/internal/ledger"
)

// Program is the concert ticket program: venues, ticket types and
// purchases.
type Program struct{}

func NewProgram() *Program { return &Program{} }

func (p *Program) Process(ic *ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	if len(data) < len(ledger.Discriminator{}) {
		return ErrInvalidInstruction
	}
	switch ledger.Discriminator(data[:8]) {
	case createVenueDiscriminator:
		var args CreateVenueArgs
		if err := unpack(createVenueDiscriminator, data, &args); err != nil {
			return err
		}
		return p.createVenue(ic, accounts, args)
	case createTicketsDiscriminator:
		var args CreateTicketsArgs
		if err := unpack(createTicketsDiscriminator, data, &args); err != nil {
			return err
		}
		return p.createTickets(ic, accounts, args)
	case purchaseTicketsDiscriminator:
		var args PurchaseTicketsArgs
		if err := unpack(purchaseTicketsDiscriminator, data, &args); err != nil {
			return err
		}
		return p.purchaseTickets(ic, accounts, args)
	}
	return ErrInvalidInstruction
}

func unpack(d ledger.Discriminator, data []byte, v any) error {
	if err := ledger.UnpackData(d, data, v); err != nil {
		return errors.Join(ErrInvalidInstruction, err)
	}
	return nil
}
