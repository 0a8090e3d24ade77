package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"concertticket/internal/ledger"
	"concertticket/internal/operator"
	"concertticket/internal/shared/clock"
	"concertticket/internal/shared/config"
	"concertticket/internal/shared/constants"
	"concertticket/internal/shared/database"
	"concertticket/internal/token"
	"concertticket/internal/venues"
	"concertticket/pkg/cache"
	"concertticket/pkg/logger"
)

type tier struct {
	name      string
	price     uint64
	available uint64
}

type venueSeed struct {
	id    string
	tiers []tier
}

// Prices are in base units of the faucet mint (6 decimals by default)
var seedVenues = []venueSeed{
	{"red-rocks", []tier{
		{"General Admission", 45_000_000, 500},
		{"Reserved", 90_000_000, 120},
	}},
	{"blue-note", []tier{
		{"Bar", 30_000_000, 40},
		{"Table", 65_000_000, 24},
		{"VIP", 150_000_000, 4},
	}},
}

type Seeder struct {
	db       *database.DB
	runtime  *ledger.Runtime
	operator operator.Service
	payer    *ledger.Keypair
	nonce    uint64
}

func main() {
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	envFile := flagSet.String("env-file", ".env", "dotenv file to load before reading the environment")
	clean := flagSet.Bool("clean", true, "truncate the ledger tables before seeding")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	_ = godotenv.Load(*envFile)

	fmt.Println("Starting ledger seeder...")

	cfg := config.Load()
	cfg.Ledger.Store = "postgres"
	logger.SetDefault(logger.NewWithWriter(os.Stderr, "warn"))

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	clk := clock.NewSystem()
	rt := ledger.NewRuntime(ledger.NewPostgresStore(db.GetPostgreSQL()), clk, ledger.WithMaxCallDepth(cfg.Ledger.MaxCallDepth))
	rt.Register("token", token.ProgramID, token.NewProgram())
	rt.Register("concert_ticket", venues.ProgramID, venues.NewProgram())
	if err := rt.ResumeSlot(context.Background()); err != nil {
		log.Fatalf("Failed to resume ledger slot: %v", err)
	}

	op, err := operator.NewService(rt, cfg, clk)
	if err != nil {
		log.Fatalf("Failed to create operator service: %v", err)
	}
	payer, err := ledger.NewKeypair()
	if err != nil {
		log.Fatal(err)
	}

	seeder := &Seeder{db: db, runtime: rt, operator: op, payer: payer, nonce: uint64(clk.Now().UnixNano())}

	if *clean {
		fmt.Println("\nCleaning ledger tables...")
		if err := seeder.CleanDatabase(); err != nil {
			log.Fatalf("Failed to clean database: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\nSeeding ledger...")
	if err := seeder.SeedAll(ctx); err != nil {
		log.Fatalf("Failed to seed ledger: %v", err)
	}

	// Views cached by a running gateway describe the old ledger
	if err := cache.NewService(db.GetRedisClient()).DeletePattern(ctx, constants.PATTERN_INVALIDATE_ALL); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	fmt.Println("\nSeeding completed.")
}

// CleanDatabase truncates the ledger tables
func (s *Seeder) CleanDatabase() error {
	for _, table := range []string{"ledger_transactions", "ledger_accounts"} {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll creates the faucet mint, the seed venues and one purchase per venue
func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.operator.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to create faucet mint: %w", err)
	}
	mint := s.operator.Info().Mint
	fmt.Printf("  Faucet mint: %s\n", mint)

	for _, v := range seedVenues {
		owner, ownerToken, err := s.SeedVenue(ctx, v, mint)
		if err != nil {
			return fmt.Errorf("failed to seed venue %s: %w", v.id, err)
		}
		fmt.Printf("    Owner %s (seed %s), proceeds to %s\n", owner.Pubkey(), owner.Base58(), ownerToken)

		if err := s.SeedPurchase(ctx, v, ownerToken); err != nil {
			return fmt.Errorf("failed to seed purchase at %s: %w", v.id, err)
		}
	}
	return nil
}

// SeedVenue creates the owner's token account, the venue and its ticket tiers
func (s *Seeder) SeedVenue(ctx context.Context, v venueSeed, mint ledger.Pubkey) (*ledger.Keypair, ledger.Pubkey, error) {
	owner, err := ledger.NewKeypair()
	if err != nil {
		return nil, ledger.Pubkey{}, err
	}
	ownerToken, err := ledger.NewKeypair()
	if err != nil {
		return nil, ledger.Pubkey{}, err
	}

	createVenue, err := venues.CreateVenue(v.id, owner.Pubkey(), mint, ownerToken.Pubkey())
	if err != nil {
		return nil, ledger.Pubkey{}, err
	}
	ixs := []ledger.Instruction{
		token.InitializeAccount(ownerToken.Pubkey(), mint, owner.Pubkey()),
		createVenue,
	}
	if _, err := s.execute(ctx, ixs, owner, ownerToken); err != nil {
		return nil, ledger.Pubkey{}, err
	}

	address, bump, err := venues.FindVenueAddress(venues.ProgramID, v.id)
	if err != nil {
		return nil, ledger.Pubkey{}, err
	}
	fmt.Printf("  Created venue %s at %s\n", v.id, address)

	for _, t := range v.tiers {
		ix, err := venues.CreateTickets(v.id, bump, owner.Pubkey(), t.name, t.price, t.available)
		if err != nil {
			return nil, ledger.Pubkey{}, err
		}
		if _, err := s.execute(ctx, []ledger.Instruction{ix}, owner); err != nil {
			return nil, ledger.Pubkey{}, fmt.Errorf("tier %s: %w", t.name, err)
		}
		fmt.Printf("    Added %d x %s at %d\n", t.available, t.name, t.price)
	}
	return owner, ownerToken.Pubkey(), nil
}

// SeedPurchase funds a new buyer from the faucet and buys the first tier
func (s *Seeder) SeedPurchase(ctx context.Context, v venueSeed, ownerToken ledger.Pubkey) error {
	buyer, err := ledger.NewKeypair()
	if err != nil {
		return err
	}
	first := v.tiers[0]

	funded, _, err := s.operator.Faucet(ctx, &operator.FaucetRequest{
		Owner:  buyer.Pubkey().String(),
		Amount: first.price * 4,
	})
	if err != nil {
		return fmt.Errorf("funding buyer: %w", err)
	}

	_, bump, err := venues.FindVenueAddress(venues.ProgramID, v.id)
	if err != nil {
		return err
	}
	ix, err := venues.PurchaseTickets(v.id, bump, buyer.Pubkey(), funded.TokenAccount, ownerToken, first.name, 2)
	if err != nil {
		return err
	}
	record, err := s.execute(ctx, []ledger.Instruction{ix}, buyer)
	if err != nil {
		return err
	}
	fmt.Printf("    Buyer %s (seed %s) bought 2 x %s in %s\n", buyer.Pubkey(), buyer.Base58(), first.name, record.Signature)
	return nil
}

func (s *Seeder) execute(ctx context.Context, ixs []ledger.Instruction, signers ...*ledger.Keypair) (*ledger.TransactionRecord, error) {
	s.nonce++
	tx, err := ledger.NewTransaction(s.nonce, ixs, append([]*ledger.Keypair{s.payer}, signers...)...)
	if err != nil {
		return nil, err
	}
	return s.runtime.Execute(ctx, tx)
}
