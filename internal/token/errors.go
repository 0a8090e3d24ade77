package token

import "fmt"

// ErrorCode enumerates the token program failures.
type ErrorCode uint32

const (
	InsufficientFunds    ErrorCode = 1
	MintMismatch         ErrorCode = 3
	OwnerMismatch        ErrorCode = 4
	AlreadyInUse         ErrorCode = 6
	InvalidInstruction   ErrorCode = 12
	Overflow             ErrorCode = 14
	MintCannotFreeze     ErrorCode = 16
	AccountFrozen        ErrorCode = 17
	UninitializedAccount ErrorCode = 18
)

var errorNames = map[ErrorCode]string{
	InsufficientFunds:    "insufficient funds",
	MintMismatch:         "account not associated with this mint",
	OwnerMismatch:        "owner does not match",
	AlreadyInUse:         "account or token already in use",
	InvalidInstruction:   "invalid instruction",
	Overflow:             "operation overflowed",
	MintCannotFreeze:     "this token mint cannot freeze accounts",
	AccountFrozen:        "account is frozen",
	UninitializedAccount: "account is not an initialized token account",
}

func (c ErrorCode) String() string {
	if name, ok := errorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("token error %d", uint32(c))
}

// Error is a token program failure. Values compare equal by code, so
// errors.Is(err, token.ErrInsufficientFunds) works through wrapping.
type Error struct {
	Code ErrorCode
}

func (e Error) Error() string { return "token: " + e.Code.String() }

func (e Error) ErrorCode() uint32 { return uint32(e.Code) }

var (
	ErrInsufficientFunds    = Error{InsufficientFunds}
	ErrMintMismatch         = Error{MintMismatch}
	ErrOwnerMismatch        = Error{OwnerMismatch}
	ErrAlreadyInUse         = Error{AlreadyInUse}
	ErrInvalidInstruction   = Error{InvalidInstruction}
	ErrOverflow             = Error{Overflow}
	ErrMintCannotFreeze     = Error{MintCannotFreeze}
	ErrAccountFrozen        = Error{AccountFrozen}
	ErrUninitializedAccount = Error{UninitializedAccount}
)
