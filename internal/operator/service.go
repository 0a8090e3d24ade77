package operator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/golang-jwt/jwt/v4"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/clock"
	"concertticket/internal/shared/config"
	"concertticket/internal/shared/middleware"
	"concertticket/internal/token"
	applogger "concertticket/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorDisabled   = errors.New("operator login is not configured")
	ErrAmountTooLarge     = errors.New("amount exceeds the faucet limit")
)

// Ledger is the runtime surface the faucet needs.
type Ledger interface {
	Execute(ctx context.Context, tx *ledger.Transaction) (*ledger.TransactionRecord, error)
	GetAccount(ctx context.Context, key ledger.Pubkey) (*ledger.Account, error)
}

type Service interface {
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	Faucet(ctx context.Context, req *FaucetRequest) (*FaucetResponse, *ledger.TransactionRecord, error)
	Info() FaucetInfo
	// Bootstrap creates the faucet mint if the ledger does not hold it yet.
	Bootstrap(ctx context.Context) error
}

type service struct {
	ledger    Ledger
	config    *config.Config
	clock     clock.Clock
	authority *ledger.Keypair
	mint      *ledger.Keypair
	nonce     atomic.Uint64
	logger    *applogger.Logger
}

// NewService loads the faucet authority from cfg.Operator.FaucetKey, or
// generates an ephemeral one when none is configured.
func NewService(l Ledger, cfg *config.Config, clk clock.Clock) (Service, error) {
	logger := applogger.GetDefault().WithComponent("operator")

	var authority *ledger.Keypair
	var err error
	if cfg.Operator.FaucetKey != "" {
		authority, err = ledger.KeypairFromBase58(cfg.Operator.FaucetKey)
	} else {
		logger.Warn("FAUCET_KEY not set, using an ephemeral faucet authority")
		authority, err = ledger.NewKeypair()
	}
	if err != nil {
		return nil, fmt.Errorf("loading faucet authority: %w", err)
	}

	mint, err := faucetMint(authority)
	if err != nil {
		return nil, err
	}

	s := &service{
		ledger:    l,
		config:    cfg,
		clock:     clk,
		authority: authority,
		mint:      mint,
		logger:    logger,
	}
	// Nonces only need to be unique per signer; start from the clock so
	// a restarted server does not repeat a persisted signature.
	s.nonce.Store(uint64(clk.Now().UnixNano()))
	return s, nil
}

// faucetMint derives the mint keypair from the authority so the mint
// address is stable across restarts.
func faucetMint(authority *ledger.Keypair) (*ledger.Keypair, error) {
	sig := authority.Sign([]byte("concertticket faucet mint"))
	seed := blake3.Sum256(sig[:])
	return ledger.KeypairFromSeed(seed[:])
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if s.config.Operator.KeyHash == "" {
		return nil, ErrOperatorDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.Operator.KeyHash), []byte(req.OperatorKey)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	claims := OperatorClaims{
		Role: middleware.RoleOperator,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.JWTExpiresIn)),
			Issuer:    "concertticket",
			Subject:   "operator",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	s.logger.LogAuthSuccess(ctx, claims.Subject, "operator_key")
	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) Info() FaucetInfo {
	return FaucetInfo{
		Mint:      s.mint.Pubkey(),
		Authority: s.authority.Pubkey(),
		Decimals:  uint8(s.config.Operator.FaucetDecimals),
		MaxMint:   s.config.Operator.FaucetMaxMint,
	}
}

func (s *service) Bootstrap(ctx context.Context) error {
	_, err := s.ledger.GetAccount(ctx, s.mint.Pubkey())
	if err == nil {
		return nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("loading faucet mint: %w", err)
	}

	freeze := s.authority.Pubkey()
	ix := token.InitializeMint(s.mint.Pubkey(), s.authority.Pubkey(), &freeze, uint8(s.config.Operator.FaucetDecimals))
	if _, err := s.execute(ctx, []ledger.Instruction{ix}, s.mint); err != nil {
		return fmt.Errorf("creating faucet mint: %w", err)
	}
	s.logger.Info("Faucet mint created", "mint", s.mint.Pubkey().String(), "authority", s.authority.Pubkey().String())
	return nil
}

func (s *service) Faucet(ctx context.Context, req *FaucetRequest) (*FaucetResponse, *ledger.TransactionRecord, error) {
	if limit := s.config.Operator.FaucetMaxMint; limit > 0 && req.Amount > limit {
		return nil, nil, ErrAmountTooLarge
	}
	owner, err := ledger.ParsePubkey(req.Owner)
	if err != nil {
		return nil, nil, err
	}

	var ixs []ledger.Instruction
	var signers []*ledger.Keypair
	var dest ledger.Pubkey
	if req.TokenAccount != "" {
		if dest, err = ledger.ParsePubkey(req.TokenAccount); err != nil {
			return nil, nil, err
		}
	} else {
		account, err := ledger.NewKeypair()
		if err != nil {
			return nil, nil, err
		}
		dest = account.Pubkey()
		ixs = append(ixs, token.InitializeAccount(dest, s.mint.Pubkey(), owner))
		signers = append(signers, account)
	}
	ixs = append(ixs, token.MintTo(s.mint.Pubkey(), dest, s.authority.Pubkey(), req.Amount))

	record, err := s.execute(ctx, ixs, signers...)
	if err != nil {
		return nil, record, err
	}
	return &FaucetResponse{
		Mint:         s.mint.Pubkey(),
		TokenAccount: dest,
		Amount:       req.Amount,
		Signature:    record.Signature,
		Slot:         record.Slot,
	}, record, nil
}

// execute signs with the faucet authority as fee payer plus signers.
func (s *service) execute(ctx context.Context, ixs []ledger.Instruction, signers ...*ledger.Keypair) (*ledger.TransactionRecord, error) {
	tx, err := ledger.NewTransaction(s.nonce.Add(1), ixs, append([]*ledger.Keypair{s.authority}, signers...)...)
	if err != nil {
		return nil, err
	}
	return s.ledger.Execute(ctx, tx)
}
