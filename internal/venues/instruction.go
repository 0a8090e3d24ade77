package venues

import (
	"fmt"

	"concertticket/internal/ledger"
	"concertticket/internal/token"
)

var (
	createVenueDiscriminator     = ledger.NewDiscriminator("global:create_venue")
	createTicketsDiscriminator   = ledger.NewDiscriminator("global:create_tickets")
	purchaseTicketsDiscriminator = ledger.NewDiscriminator("global:purchase_tickets")
)

type CreateVenueArgs struct {
	VenueID string `cbor:"1,keyasint"`
}

type CreateTicketsArgs struct {
	VenueID   string `cbor:"1,keyasint"`
	Bump      uint8  `cbor:"2,keyasint"`
	Name      string `cbor:"3,keyasint"`
	Price     uint64 `cbor:"4,keyasint"`
	Available uint64 `cbor:"5,keyasint"`
}

type PurchaseTicketsArgs struct {
	VenueID  string `cbor:"1,keyasint"`
	Bump     uint8  `cbor:"2,keyasint"`
	Name     string `cbor:"3,keyasint"`
	Quantity uint64 `cbor:"4,keyasint"`
}

func venueAddress(venueID string) (ledger.Pubkey, error) {
	addr, _, err := FindVenueAddress(ProgramID, venueID)
	if err != nil {
		return ledger.Pubkey{}, fmt.Errorf("deriving venue %q: %w", venueID, err)
	}
	return addr, nil
}

// CreateVenue builds the create_venue instruction.
// Accounts: venue, owner (signer), mint, owner token account.
func CreateVenue(venueID string, owner, mint, ownerTokenAccount ledger.Pubkey) (ledger.Instruction, error) {
	venue, err := venueAddress(venueID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	data, err := ledger.PackData(createVenueDiscriminator, CreateVenueArgs{VenueID: venueID})
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(venue),
			ledger.WritableSigner(owner),
			ledger.Readonly(mint),
			ledger.Readonly(ownerTokenAccount),
		},
		Data: data,
	}, nil
}

// CreateTickets builds the create_tickets instruction. The venue
// account is the canonical derivation; bump travels as an argument and
// is checked by the program.
func CreateTickets(venueID string, bump uint8, owner ledger.Pubkey, name string, price, available uint64) (ledger.Instruction, error) {
	venue, err := venueAddress(venueID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	data, err := ledger.PackData(createTicketsDiscriminator, CreateTicketsArgs{
		VenueID:   venueID,
		Bump:      bump,
		Name:      name,
		Price:     price,
		Available: available,
	})
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(venue),
			ledger.WritableSigner(owner),
		},
		Data: data,
	}, nil
}

// PurchaseTickets builds the purchase_tickets instruction.
// Accounts: venue, receipt, buyer (signer), buyer token account, venue
// owner token account, token program.
func PurchaseTickets(venueID string, bump uint8, buyer, buyerTokenAccount, ownerTokenAccount ledger.Pubkey, name string, quantity uint64) (ledger.Instruction, error) {
	venue, err := venueAddress(venueID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	receipt, _, err := FindReceiptAddress(ProgramID, venueID, buyer)
	if err != nil {
		return ledger.Instruction{}, fmt.Errorf("deriving receipt: %w", err)
	}
	data, err := ledger.PackData(purchaseTicketsDiscriminator, PurchaseTicketsArgs{
		VenueID:  venueID,
		Bump:     bump,
		Name:     name,
		Quantity: quantity,
	})
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(venue),
			ledger.Writable(receipt),
			ledger.WritableSigner(buyer),
			ledger.Writable(buyerTokenAccount),
			ledger.Writable(ownerTokenAccount),
			ledger.Readonly(token.ProgramID),
		},
		Data: data,
	}, nil
}
