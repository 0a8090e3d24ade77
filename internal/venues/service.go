package venues

import (
	"context"
	"fmt"
	"time"

	"concertticket/internal/ledger"
)

// Service answers read queries about venues and receipts by venue id.
type Service interface {
	GetVenue(ctx context.Context, venueID string) (*VenueResponse, error)
	GetReceipt(ctx context.Context, venueID string, buyer ledger.Pubkey) (*ReceiptResponse, error)
}

type service struct {
	repo      Repository
	programID ledger.Pubkey
}

func NewService(repo Repository) Service {
	return &service{repo: repo, programID: ProgramID}
}

func (s *service) GetVenue(ctx context.Context, venueID string) (*VenueResponse, error) {
	address, bump, err := FindVenueAddress(s.programID, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive venue address: %w", err)
	}

	venue, err := s.repo.GetVenue(ctx, address)
	if err != nil {
		return nil, err
	}

	resp := &VenueResponse{
		VenueID:           venueID,
		Address:           address,
		Bump:              bump,
		Owner:             venue.Owner,
		TokenMint:         venue.TokenMint,
		OwnerTokenAccount: venue.OwnerTokenAccount,
		Tickets:           make([]TicketResponse, 0, len(venue.AvailableTickets)),
	}
	for _, t := range venue.AvailableTickets {
		resp.Tickets = append(resp.Tickets, toTicketResponse(t))
		resp.TotalAvailable += t.Available
	}
	return resp, nil
}

func (s *service) GetReceipt(ctx context.Context, venueID string, buyer ledger.Pubkey) (*ReceiptResponse, error) {
	address, _, err := FindReceiptAddress(s.programID, venueID, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to derive receipt address: %w", err)
	}

	receipt, err := s.repo.GetReceipt(ctx, address)
	if err != nil {
		return nil, err
	}

	return &ReceiptResponse{
		VenueID:        venueID,
		Buyer:          buyer,
		Address:        address,
		Ticket:         toTicketResponse(receipt.Ticket),
		Quantity:       receipt.Quantity,
		DateOfPurchase: time.Unix(receipt.DateOfPurchase, 0).UTC(),
	}, nil
}
