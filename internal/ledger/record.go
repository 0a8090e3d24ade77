package ledger

import (
	"encoding/json"
	"time"
)

type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
)

// Event is a structured notification a program emits while executing.
// Events of failed transactions are discarded.
type Event struct {
	Program Pubkey          `json:"program"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// TransactionRecord is the outcome of executing a transaction.
type TransactionRecord struct {
	Signature Signature `json:"signature"`
	Slot      uint64    `json:"slot"`
	FeePayer  Pubkey    `json:"fee_payer"`
	Status    TxStatus  `json:"status"`
	Error     string    `json:"error,omitempty"`
	ErrorCode *uint32   `json:"error_code,omitempty"`
	Logs      []string  `json:"logs"`
	Events    []Event   `json:"events"`
	Written   []Pubkey  `json:"written_accounts"`
	BlockTime time.Time `json:"block_time"`
}

func (r *TransactionRecord) Succeeded() bool {
	return r.Status == TxStatusSuccess
}
