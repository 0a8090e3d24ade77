package validation

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"concertticket/internal/ledger"
)

var registerOnce sync.Once

// Register installs the custom rules on gin's binding validator.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterRules(v)
		}
	})
}

// New returns a standalone validator with the custom rules installed.
func New() *validator.Validate {
	v := validator.New()
	RegisterRules(v)
	return v
}

// RegisterRules adds:
//
//	pubkey    base58 encoded 32-byte address
//	signature base58 encoded 64-byte signature
//	seed      non-empty string usable as one derivation seed (byte length)
func RegisterRules(v *validator.Validate) {
	_ = v.RegisterValidation("pubkey", isPubkey)
	_ = v.RegisterValidation("signature", isSignature)
	_ = v.RegisterValidation("seed", isSeed)
}

func isSeed(fl validator.FieldLevel) bool {
	n := len(fl.Field().String())
	return n > 0 && n <= ledger.MaxSeedLen
}

func isPubkey(fl validator.FieldLevel) bool {
	_, err := ledger.ParsePubkey(fl.Field().String())
	return err == nil
}

func isSignature(fl validator.FieldLevel) bool {
	_, err := ledger.ParseSignature(fl.Field().String())
	return err == nil
}
