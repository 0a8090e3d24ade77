package venues

import "fmt"

// ErrorCode enumerates the venue program failures. Codes start at 6000
// so they never collide with host or token codes.
type ErrorCode uint32

const (
	InvalidTicketName ErrorCode = iota + 6000
	TicketsNotAvailable
	ArithmeticUnderflow
	AccountAlreadyExists
	MintMismatch
	NotOwner
	InvalidDerivation
	InvalidQuantity
	TokenAccountMismatch
	InvalidAccount
	InvalidInstruction
)

var errorMessages = map[ErrorCode]string{
	InvalidTicketName:    "the ticket name does not exist, provide a valid ticket name",
	TicketsNotAvailable:  "not enough tickets available",
	ArithmeticUnderflow:  "ticket count underflow",
	AccountAlreadyExists: "account already exists at the derived address",
	MintMismatch:         "token account does not belong to the venue mint",
	NotOwner:             "signer is not the venue owner",
	InvalidDerivation:    "account does not match the derived address",
	InvalidQuantity:      "quantity must be greater than zero",
	TokenAccountMismatch: "destination is not the venue owner token account",
	InvalidAccount:       "account is not of the expected type",
	InvalidInstruction:   "invalid instruction data",
}

var errorNames = map[ErrorCode]string{
	InvalidTicketName:    "InvalidTicketName",
	TicketsNotAvailable:  "TicketsNotAvailable",
	ArithmeticUnderflow:  "ArithmeticUnderflow",
	AccountAlreadyExists: "AccountAlreadyExists",
	MintMismatch:         "MintMismatch",
	NotOwner:             "NotOwner",
	InvalidDerivation:    "InvalidDerivation",
	InvalidQuantity:      "InvalidQuantity",
	TokenAccountMismatch: "TokenAccountMismatch",
	InvalidAccount:       "InvalidAccount",
	InvalidInstruction:   "InvalidInstruction",
}

func (c ErrorCode) String() string {
	if name, ok := errorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(c))
}

// Message is the human readable description.
func (c ErrorCode) Message() string {
	return errorMessages[c]
}

// Error is a venue program failure carrying only its code.
type Error struct {
	Code ErrorCode
}

func (e Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, uint32(e.Code), e.Code.Message())
}

func (e Error) ErrorCode() uint32 { return uint32(e.Code) }

var (
	ErrInvalidTicketName    = Error{InvalidTicketName}
	ErrTicketsNotAvailable  = Error{TicketsNotAvailable}
	ErrArithmeticUnderflow  = Error{ArithmeticUnderflow}
	ErrAccountAlreadyExists = Error{AccountAlreadyExists}
	ErrMintMismatch         = Error{MintMismatch}
	ErrNotOwner             = Error{NotOwner}
	ErrInvalidDerivation    = Error{InvalidDerivation}
	ErrInvalidQuantity      = Error{InvalidQuantity}
	ErrTokenAccountMismatch = Error{TokenAccountMismatch}
	ErrInvalidAccount       = Error{InvalidAccount}
	ErrInvalidInstruction   = Error{InvalidInstruction}
)
