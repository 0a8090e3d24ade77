package ledger

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds bounds the number of seeds in a derivation, bump included.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single seed.
	MaxSeedLen = 32
)

// IsOnCurve reports whether b decodes as an ed25519 point. Only
// off-curve values may serve as program-derived addresses.
func IsOnCurve(b Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return fmt.Errorf("%w: seed %d is %d bytes", ErrMaxSeedLengthExceeded, i, len(seed))
		}
	}
	return nil
}

// CreateProgramAddress hashes seeds and the program id into an address
// that has no private key. It fails with ErrInvalidSeeds when the hash
// lands on the curve.
func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if err := checkSeeds(seeds); err != nil {
		return Pubkey{}, err
	}
	parts := make([][]byte, 0, len(seeds)+1)
	parts = append(parts, seeds...)
	parts = append(parts, programID[:])
	addr := Pubkey(keyedSum(programAddressKey, parts...))
	if IsOnCurve(addr) {
		return Pubkey{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the
// first off-curve address with its bump appended as the final seed.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Pubkey{}, 0, fmt.Errorf("%w: no room for bump seed", ErrMaxSeedLengthExceeded)
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, fmt.Errorf("%w: no viable bump", ErrInvalidSeeds)
}

// DerivedAuthority lets a program sign for one of its derived addresses
// during CreateAccount and Invoke. The runtime honours it only while
// the named program is executing.
type DerivedAuthority struct {
	program Pubkey
	seeds   [][]byte
	address Pubkey
}

// NewDerivedAuthority recomputes the address from seeds plus bump. The
// bump is checked by derivation, never trusted.
func NewDerivedAuthority(programID Pubkey, bump uint8, seeds ...[]byte) (DerivedAuthority, error) {
	full := make([][]byte, 0, len(seeds)+1)
	for _, s := range seeds {
		full = append(full, append([]byte(nil), s...))
	}
	full = append(full, []byte{bump})
	addr, err := CreateProgramAddress(full, programID)
	if err != nil {
		return DerivedAuthority{}, err
	}
	return DerivedAuthority{program: programID, seeds: full, address: addr}, nil
}

// FindDerivedAuthority is NewDerivedAuthority with the canonical bump.
func FindDerivedAuthority(programID Pubkey, seeds ...[]byte) (DerivedAuthority, uint8, error) {
	_, bump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		return DerivedAuthority{}, 0, err
	}
	auth, err := NewDerivedAuthority(programID, bump, seeds...)
	return auth, bump, err
}

func (a DerivedAuthority) Address() Pubkey { return a.address }

func (a DerivedAuthority) Program() Pubkey { return a.program }

// Bump returns the final seed.
func (a DerivedAuthority) Bump() uint8 {
	if len(a.seeds) == 0 {
		return 0
	}
	return a.seeds[len(a.seeds)-1][0]
}

// valid re-derives the address so a zero or hand-built value never
// grants anything.
func (a DerivedAuthority) valid() bool {
	if len(a.seeds) == 0 {
		return false
	}
	addr, err := CreateProgramAddress(a.seeds, a.program)
	return err == nil && addr == a.address
}
