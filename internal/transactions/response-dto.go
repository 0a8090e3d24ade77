package transactions

import "concertticket/internal/ledger"

type TokenAccountResponse struct {
	Address ledger.Pubkey `json:"address"`
	Mint    ledger.Pubkey `json:"mint"`
	Owner   ledger.Pubkey `json:"owner"`
	Amount  uint64        `json:"amount"`
	Frozen  bool          `json:"frozen"`
}

type SubmitResponse struct {
	Signature ledger.Signature          `json:"signature"`
	Record    *ledger.TransactionRecord `json:"record,omitempty"`
}
