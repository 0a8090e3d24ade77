package venues

import "concertticket/internal/ledger"

const (
	VenueSeed  = "venue"
	TicketSeed = "ticket"
)

// FindVenueAddress derives the venue account address and its bump.
func FindVenueAddress(programID ledger.Pubkey, venueID string) (ledger.Pubkey, uint8, error) {
	return ledger.FindProgramAddress([][]byte{[]byte(VenueSeed), []byte(venueID)}, programID)
}

// VenueAuthority re-derives the venue address from a caller supplied
// bump and returns the capability to sign for it.
func VenueAuthority(programID ledger.Pubkey, venueID string, bump uint8) (ledger.DerivedAuthority, error) {
	return ledger.NewDerivedAuthority(programID, bump, []byte(VenueSeed), []byte(venueID))
}

// FindReceiptAddress derives the receipt address of buyer at venueID.
func FindReceiptAddress(programID ledger.Pubkey, venueID string, buyer ledger.Pubkey) (ledger.Pubkey, uint8, error) {
	return ledger.FindProgramAddress([][]byte{[]byte(TicketSeed), []byte(venueID), buyer.Bytes()}, programID)
}

func receiptAuthority(programID ledger.Pubkey, venueID string, buyer ledger.Pubkey) (ledger.DerivedAuthority, error) {
	auth, _, err := ledger.FindDerivedAuthority(programID, []byte(TicketSeed), []byte(venueID), buyer.Bytes())
	return auth, err
}
