package transactions

type SignatureURI struct {
	Signature string `uri:"signature" binding:"required,signature"`
}

type AddressURI struct {
	Address string `uri:"address" binding:"required,pubkey"`
}
