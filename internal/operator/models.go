package operator

import (
	"github.com/golang-jwt/jwt/v4"

	"concertticket/internal/ledger"
)

// LoginRequest exchanges the operator key for an access token
type LoginRequest struct {
	OperatorKey string `json:"operator_key" validate:"required,min=8"`
}

// TokenResponse is the issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FaucetRequest mints faucet tokens to Owner. Without TokenAccount a new
// token account is created for Owner first.
type FaucetRequest struct {
	Owner        string `json:"owner" validate:"required,pubkey"`
	Amount       uint64 `json:"amount" validate:"required,gt=0"`
	TokenAccount string `json:"token_account,omitempty" validate:"omitempty,pubkey"`
}

type FaucetResponse struct {
	Mint         ledger.Pubkey    `json:"mint"`
	TokenAccount ledger.Pubkey    `json:"token_account"`
	Amount       uint64           `json:"amount"`
	Signature    ledger.Signature `json:"signature"`
	Slot         uint64           `json:"slot"`
}

type FaucetInfo struct {
	Mint      ledger.Pubkey `json:"mint"`
	Authority ledger.Pubkey `json:"authority"`
	Decimals  uint8         `json:"decimals"`
	MaxMint   uint64        `json:"max_mint"`
}

// OperatorClaims represents JWT token claims
type OperatorClaims struct {
	Role string `json:"role"`
	Type string `json:"type"` // always "access"
	jwt.RegisteredClaims
}
