package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountAlreadyExists    = errors.New("account already in use")
	ErrAccountNotLoaded        = errors.New("account was not passed to the transaction")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrStaleAccount            = errors.New("account changed since it was loaded")
	ErrEmptyTransaction        = errors.New("transaction has no instructions")
	ErrMissingSignature        = errors.New("missing required signature")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrReadonlyAccount         = errors.New("instruction modified a read-only account")
	ErrExternalAccountModified = errors.New("instruction modified data of an account it does not own")
	ErrAccountDataTooSmall     = errors.New("account data too small for instruction")
	ErrInvalidAccountSpace     = errors.New("invalid account space")
	ErrUnknownProgram          = errors.New("unknown program id")
	ErrInvalidSeeds            = errors.New("provided seeds do not result in a valid address")
	ErrMaxSeedLengthExceeded   = errors.New("seeds exceed the derivation limits")
	ErrPrivilegeEscalation     = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrCallDepth               = errors.New("cross-program invocation call depth too deep")
	ErrNotEnoughAccountKeys    = errors.New("not enough account keys given to the instruction")
	ErrDiscriminatorMismatch   = errors.New("data discriminator does not match")
	ErrInvalidData             = errors.New("invalid account or instruction data")
)

// InstructionError ties a failure to the instruction that raised it.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// CodedError is implemented by program errors that carry a numeric
// code, so the gateway can report it without knowing the program.
type CodedError interface {
	error
	ErrorCode() uint32
}

// ErrorCodeOf returns the program error code wrapped in err, if any.
func ErrorCodeOf(err error) (uint32, bool) {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return 0, false
}
