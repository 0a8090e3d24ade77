package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"

	"concertticket/internal/ledger"
)

type addressRequest struct {
	Address   string `binding:"required,pubkey"`
	Signature string `binding:"omitempty,signature"`
}

func TestRegister(t *testing.T) {
	Register()
	Register()

	kp, err := ledger.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	sig := kp.Sign([]byte("msg"))

	tests := []struct {
		name    string
		req     addressRequest
		wantErr bool
	}{
		{"valid", addressRequest{Address: kp.Pubkey().String(), Signature: sig.String()}, false},
		{"no signature", addressRequest{Address: kp.Pubkey().String()}, false},
		{"bad base58", addressRequest{Address: "0OIl"}, true},
		{"too short", addressRequest{Address: "abc"}, true},
		{"pubkey as signature", addressRequest{Address: kp.Pubkey().String(), Signature: kp.Pubkey().String()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type faucetRequest struct {
	Owner  string `validate:"required,pubkey"`
	Amount uint64 `validate:"required,gt=0"`
}

func TestNew(t *testing.T) {
	v := New()
	kp, err := ledger.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Struct(faucetRequest{Owner: kp.Pubkey().String(), Amount: 1}); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	if err := v.Struct(faucetRequest{Owner: "nope", Amount: 1}); err == nil {
		t.Error("invalid owner accepted")
	}
	if err := v.Struct(faucetRequest{Owner: kp.Pubkey().String()}); err == nil {
		t.Error("zero amount accepted")
	}
}

type venueRequest struct {
	VenueID string `binding:"required,seed"`
}

func TestSeedCountsBytes(t *testing.T) {
	Register()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"ascii at limit", strings.Repeat("a", 32), false},
		{"ascii over limit", strings.Repeat("a", 33), true},
		{"multibyte at limit", strings.Repeat("é", 16), false},
		{"multibyte over limit", strings.Repeat("é", 20), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&venueRequest{VenueID: tt.id})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
