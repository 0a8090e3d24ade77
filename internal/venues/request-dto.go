package venues

type VenueURI struct {
	VenueID string `uri:"venueId" binding:"required,seed"`
}

type ReceiptURI struct {
	VenueID string `uri:"venueId" binding:"required,seed"`
	Buyer   string `uri:"buyer" binding:"required,pubkey"`
}
