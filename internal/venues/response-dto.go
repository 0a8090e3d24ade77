package venues

import (
	"time"

	"concertticket/internal/ledger"
)

type VenueResponse struct {
	VenueID           string           `json:"venue_id"`
	Address           ledger.Pubkey    `json:"address"`
	Bump              uint8            `json:"bump"`
	Owner             ledger.Pubkey    `json:"owner"`
	TokenMint         ledger.Pubkey    `json:"token_mint"`
	OwnerTokenAccount ledger.Pubkey    `json:"owner_token_account"`
	Tickets           []TicketResponse `json:"tickets"`
	TotalAvailable    uint64           `json:"total_available"`
}

type TicketResponse struct {
	Name      string `json:"name"`
	Price     uint64 `json:"price"`
	Available uint64 `json:"available"`
	SoldOut   bool   `json:"sold_out"`
}

type ReceiptResponse struct {
	VenueID        string         `json:"venue_id"`
	Buyer          ledger.Pubkey  `json:"buyer"`
	Address        ledger.Pubkey  `json:"address"`
	Ticket         TicketResponse `json:"ticket"`
	Quantity       uint64         `json:"quantity"`
	DateOfPurchase time.Time      `json:"date_of_purchase"`
}

func toTicketResponse(t Ticket) TicketResponse {
	return TicketResponse{
		Name:      t.Name,
		Price:     t.Price,
		Available: t.Available,
		SoldOut:   t.Available == 0,
	}
}
