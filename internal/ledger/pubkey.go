package ledger

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeySize is the length of an account address.
const PubkeySize = 32

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Pubkey addresses an account. Keypair addresses are ed25519 public
// keys; program-derived addresses are off-curve hashes.
type Pubkey [PubkeySize]byte

// ParsePubkey decodes a base58 address.
func ParsePubkey(s string) (Pubkey, error) {
	var p Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("parsing pubkey %q: %w", s, err)
	}
	if len(raw) != PubkeySize {
		return p, fmt.Errorf("parsing pubkey %q: got %d bytes, want %d", s, len(raw), PubkeySize)
	}
	copy(p[:], raw)
	return p, nil
}

// MustParsePubkey is ParsePubkey for constants; it panics on bad input.
func MustParsePubkey(s string) Pubkey {
	p, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns a copy of the key bytes, convenient as a derivation seed.
func (p Pubkey) Bytes() []byte {
	out := make([]byte, PubkeySize)
	copy(out, p[:])
	return out
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Less orders keys bytewise; lock acquisition relies on it.
func (p Pubkey) Less(other Pubkey) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Signature is an ed25519 signature over a transaction message. The
// first signature of a transaction is its identifier.
type Signature [SignatureSize]byte

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	raw, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("parsing signature: %w", err)
	}
	if len(raw) != SignatureSize {
		return sig, fmt.Errorf("parsing signature: got %d bytes, want %d", len(raw), SignatureSize)
	}
	copy(sig[:], raw)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Verify reports whether s is a valid signature of message by signer.
func (s Signature) Verify(signer Pubkey, message []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(signer[:]), message, s[:])
}

// Keypair holds an ed25519 private key.
type Keypair struct {
	private ed25519.PrivateKey
	public  Pubkey
}

// NewKeypair generates a random keypair.
func NewKeypair() (*Keypair, error) {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	return keypairFromPrivate(private), nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keypair seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return keypairFromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromBase58 parses a base58 encoded 32-byte seed or 64-byte
// private key, the two forms wallets export.
func KeypairFromBase58(s string) (*Keypair, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("parsing keypair: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return KeypairFromSeed(raw)
	case ed25519.PrivateKeySize:
		return keypairFromPrivate(ed25519.PrivateKey(raw)), nil
	default:
		return nil, fmt.Errorf("parsing keypair: got %d bytes", len(raw))
	}
}

func keypairFromPrivate(private ed25519.PrivateKey) *Keypair {
	k := &Keypair{private: private}
	copy(k.public[:], private.Public().(ed25519.PublicKey))
	return k
}

func (k *Keypair) Pubkey() Pubkey {
	return k.public
}

// Base58 encodes the 32-byte seed, the form KeypairFromBase58 reads back.
func (k *Keypair) Base58() string {
	return base58.Encode(k.private.Seed())
}

// Sign signs message with the private key.
func (k *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.private, message))
	return sig
}
