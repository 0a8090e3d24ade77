package venues

import (
	"errors"

	"concertticket/internal/ledger"
)

// ProgramID is the venue program's address.
var ProgramID = ledger.ProgramIDFromName("concert_ticket")

const (
	VenueSpace   = 1000
	ReceiptSpace = 100

	// MaxVenueIDLen is the derivation seed limit.
	MaxVenueIDLen = ledger.MaxSeedLen
	// MaxTicketNameLen keeps a receipt inside ReceiptSpace.
	MaxTicketNameLen = 32
)

var (
	venueDiscriminator   = ledger.NewDiscriminator("account:Venue")
	receiptDiscriminator = ledger.NewDiscriminator("account:PurchasedTickets")
)

type Ticket struct {
	Name      string `cbor:"1,keyasint" json:"name"`
	Price     uint64 `cbor:"2,keyasint" json:"price"`
	Available uint64 `cbor:"3,keyasint" json:"available"`
}

// Venue is the inventory record of one venue id.
type Venue struct {
	Owner             ledger.Pubkey `cbor:"1,keyasint" json:"owner"`
	AvailableTickets  []Ticket      `cbor:"2,keyasint" json:"available_tickets"`
	TokenMint         ledger.Pubkey `cbor:"3,keyasint" json:"token_mint"`
	OwnerTokenAccount ledger.Pubkey `cbor:"4,keyasint" json:"owner_token_account"`
}

// findTicket returns the index of the first ticket named name, or -1.
func (v *Venue) findTicket(name string) int {
	for i := range v.AvailableTickets {
		if v.AvailableTickets[i].Name == name {
			return i
		}
	}
	return -1
}

// PurchasedTickets is the receipt of one buyer at one venue.
type PurchasedTickets struct {
	Ticket         Ticket `cbor:"1,keyasint" json:"ticket"`
	Quantity       uint64 `cbor:"2,keyasint" json:"quantity"`
	DateOfPurchase int64  `cbor:"3,keyasint" json:"date_of_purchase"`
}

func DecodeVenue(data []byte) (*Venue, error) {
	var v Venue
	if err := ledger.UnpackData(venueDiscriminator, data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func DecodeReceipt(data []byte) (*PurchasedTickets, error) {
	var r PurchasedTickets
	if err := ledger.UnpackData(receiptDiscriminator, data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func loadVenue(ic *ledger.InvokeContext, info *ledger.AccountInfo) (*Venue, error) {
	if !info.Exists() || info.Owner() != ic.ProgramID() {
		return nil, ErrInvalidAccount
	}
	v, err := DecodeVenue(info.Data())
	if err != nil {
		return nil, errors.Join(ErrInvalidAccount, err)
	}
	return v, nil
}

func storeVenue(info *ledger.AccountInfo, v *Venue) error {
	data, err := ledger.PackData(venueDiscriminator, v)
	if err != nil {
		return err
	}
	return info.SetData(data)
}

func storeReceipt(info *ledger.AccountInfo, r *PurchasedTickets) error {
	data, err := ledger.PackData(receiptDiscriminator, r)
	if err != nil {
		return err
	}
	return info.SetData(data)
}
