package ledger

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// Domain keys separate the hash uses of the ledger so that an address
// can never collide with a discriminator or a message digest. Each key
// is the domain string zero-padded to 32 bytes.
var (
	programAddressKey = domainKey("concertticket.program-address")
	discriminatorKey  = domainKey("concertticket.discriminator")
	programIDKey      = domainKey("concertticket.program-id")
)

func domainKey(domain string) [32]byte {
	var key [32]byte
	if len(domain) > len(key) {
		panic(fmt.Sprintf("hash domain %q longer than 32 bytes", domain))
	}
	copy(key[:], domain)
	return key
}

func keyedSum(key [32]byte, parts ...[]byte) [32]byte {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic(fmt.Sprintf("blake3.NewKeyed with 32-byte key failed: %v", err))
	}
	for _, part := range parts {
		hasher.Write(part)
	}
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// Discriminator is the 8-byte tag prefixed to account data and
// instruction data so a program can tell its record and instruction
// types apart. Programs use "account:<Type>" and "global:<instruction>".
type Discriminator [8]byte

// NewDiscriminator hashes a preimage such as "account:Venue".
func NewDiscriminator(preimage string) Discriminator {
	sum := keyedSum(discriminatorKey, []byte(preimage))
	var d Discriminator
	copy(d[:], sum[:8])
	return d
}

// Matches reports whether data begins with the discriminator.
func (d Discriminator) Matches(data []byte) bool {
	return len(data) >= len(d) && Discriminator(data[:8]) == d
}

// ProgramIDFromName maps a program name to a stable id. Ids produced
// this way are plain hashes and are not guaranteed off-curve; they only
// identify programs and never sign.
func ProgramIDFromName(name string) Pubkey {
	return Pubkey(keyedSum(programIDKey, []byte(name)))
}
