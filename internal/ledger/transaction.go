package ledger

import (
	"fmt"

	"concertticket/pkg/codec"
)

// AccountMeta names an account an instruction touches and the
// privileges it needs.
type AccountMeta struct {
	Pubkey     Pubkey `cbor:"1,keyasint" json:"pubkey"`
	IsSigner   bool   `cbor:"2,keyasint" json:"is_signer"`
	IsWritable bool   `cbor:"3,keyasint" json:"is_writable"`
}

// Writable is shorthand for a writable, non-signing meta.
func Writable(key Pubkey) AccountMeta { return AccountMeta{Pubkey: key, IsWritable: true} }

// Readonly is shorthand for a read-only, non-signing meta.
func Readonly(key Pubkey) AccountMeta { return AccountMeta{Pubkey: key} }

// Signer is shorthand for a read-only signer meta.
func Signer(key Pubkey) AccountMeta { return AccountMeta{Pubkey: key, IsSigner: true} }

// WritableSigner is shorthand for a writable signer meta.
func WritableSigner(key Pubkey) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: true, IsWritable: true}
}

// Instruction is one program call inside a transaction.
type Instruction struct {
	ProgramID Pubkey        `cbor:"1,keyasint" json:"program_id"`
	Accounts  []AccountMeta `cbor:"2,keyasint" json:"accounts"`
	Data      []byte        `cbor:"3,keyasint" json:"data"`
}

// Message is the signed part of a transaction. Signers[0] pays fees.
type Message struct {
	Nonce        uint64        `cbor:"1,keyasint" json:"nonce"`
	Signers      []Pubkey      `cbor:"2,keyasint" json:"signers"`
	Instructions []Instruction `cbor:"3,keyasint" json:"instructions"`
}

// Bytes is the deterministic encoding that signatures cover.
func (m *Message) Bytes() ([]byte, error) {
	return codec.Marshal(m)
}

// FeePayer returns the first signer.
func (m *Message) FeePayer() Pubkey {
	if len(m.Signers) == 0 {
		return Pubkey{}
	}
	return m.Signers[0]
}

// Transaction is a message plus one signature per Message.Signers entry.
type Transaction struct {
	Message    Message     `cbor:"1,keyasint" json:"message"`
	Signatures []Signature `cbor:"2,keyasint" json:"signatures"`
}

// NewTransaction builds and signs a transaction. The first keypair is
// the fee payer.
func NewTransaction(nonce uint64, instructions []Instruction, signers ...*Keypair) (*Transaction, error) {
	tx := &Transaction{Message: Message{Nonce: nonce, Instructions: instructions}}
	for _, kp := range signers {
		tx.Message.Signers = append(tx.Message.Signers, kp.Pubkey())
	}
	if err := tx.Sign(signers...); err != nil {
		return nil, err
	}
	return tx, nil
}

// Sign (re)computes every signature. Each Message.Signers entry needs a
// matching keypair.
func (tx *Transaction) Sign(keypairs ...*Keypair) error {
	msg, err := tx.Message.Bytes()
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	byKey := make(map[Pubkey]*Keypair, len(keypairs))
	for _, kp := range keypairs {
		byKey[kp.Pubkey()] = kp
	}
	tx.Signatures = make([]Signature, len(tx.Message.Signers))
	for i, signer := range tx.Message.Signers {
		kp, ok := byKey[signer]
		if !ok {
			return fmt.Errorf("%w: no keypair for %s", ErrMissingSignature, signer)
		}
		tx.Signatures[i] = kp.Sign(msg)
	}
	return nil
}

// ID is the first signature.
func (tx *Transaction) ID() Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}

// Verify checks every signature and returns the set of keys that signed.
func (tx *Transaction) Verify() (map[Pubkey]bool, error) {
	if len(tx.Message.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	if len(tx.Message.Signers) == 0 {
		return nil, fmt.Errorf("%w: transaction has no signers", ErrMissingSignature)
	}
	if len(tx.Signatures) != len(tx.Message.Signers) {
		return nil, fmt.Errorf("%w: %d signatures for %d signers", ErrMissingSignature, len(tx.Signatures), len(tx.Message.Signers))
	}
	msg, err := tx.Message.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}
	signed := make(map[Pubkey]bool, len(tx.Signatures))
	for i, signer := range tx.Message.Signers {
		if !tx.Signatures[i].Verify(signer, msg) {
			return nil, fmt.Errorf("%w: signer %s", ErrInvalidSignature, signer)
		}
		signed[signer] = true
	}
	for i, ix := range tx.Message.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !signed[meta.Pubkey] {
				return nil, &InstructionError{Index: i, Err: fmt.Errorf("%w: %s", ErrMissingSignature, meta.Pubkey)}
			}
		}
	}
	return signed, nil
}
