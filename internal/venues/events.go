package venues

import "concertticket/internal/ledger"

const (
	EventVenueCreated     = "venue_created"
	EventTicketsCreated   = "tickets_created"
	EventTicketsPurchased = "tickets_purchased"
)

type VenueCreatedEvent struct {
	VenueID           string        `json:"venue_id"`
	Venue             ledger.Pubkey `json:"venue"`
	Owner             ledger.Pubkey `json:"owner"`
	TokenMint         ledger.Pubkey `json:"token_mint"`
	OwnerTokenAccount ledger.Pubkey `json:"owner_token_account"`
}

type TicketsCreatedEvent struct {
	VenueID   string        `json:"venue_id"`
	Venue     ledger.Pubkey `json:"venue"`
	Name      string        `json:"name"`
	Price     uint64        `json:"price"`
	Available uint64        `json:"available"`
}

type TicketsPurchasedEvent struct {
	VenueID     string        `json:"venue_id"`
	Venue       ledger.Pubkey `json:"venue"`
	Buyer       ledger.Pubkey `json:"buyer"`
	Receipt     ledger.Pubkey `json:"receipt"`
	Name        string        `json:"name"`
	Quantity    uint64        `json:"quantity"`
	AmountPaid  uint64        `json:"amount_paid"`
	Remaining   uint64        `json:"remaining"`
	PurchasedAt int64         `json:"purchased_at"`
}
