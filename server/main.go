package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"concertticket/api/routes"
	"concertticket/internal/ledger"
	"concertticket/internal/notifications"
	"concertticket/internal/operator"
	"concertticket/internal/shared/clock"
	"concertticket/internal/shared/config"
	"concertticket/internal/shared/constants"
	"concertticket/internal/shared/database"
	"concertticket/internal/shared/validation"
	"concertticket/internal/token"
	"concertticket/internal/transactions"
	"concertticket/internal/venues"
	"concertticket/pkg/cache"
	"concertticket/pkg/logger"
	"concertticket/pkg/ratelimit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flagSet := pflag.NewFlagSet("concertticket", pflag.ContinueOnError)
	envFile := flagSet.String("env-file", ".env", "dotenv file to load before reading the environment")
	port := flagSet.String("port", "", "listen port (overrides PORT)")
	store := flagSet.String("store", "", "ledger store: memory or postgres (overrides LEDGER_STORE)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*envFile, *port, *store); err != nil {
		logger.GetDefault().Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(envFile, port, store string) error {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(envFile); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables", slog.String("file", envFile))
		}
	} else {
		appLogger.Info("Development environment: loaded .env file", slog.String("file", envFile))
	}

	cfg := config.Load()
	if port != "" {
		cfg.Port = port
	}
	if store != "" {
		cfg.Ledger.Store = store
	}

	gin.SetMode(cfg.GinMode)
	appLogger = logger.NewWithWriter(os.Stdout, cfg.LogLevel)
	logger.SetDefault(appLogger)
	validation.Register()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var ledgerStore ledger.Store
	switch cfg.Ledger.Store {
	case "memory":
		ledgerStore = ledger.NewMemoryStore()
	case "postgres":
		ledgerStore = ledger.NewPostgresStore(db.GetPostgreSQL())
	default:
		return fmt.Errorf("unknown ledger store %q", cfg.Ledger.Store)
	}
	defer ledgerStore.Close()

	clk := clock.NewSystem()
	runtime := ledger.NewRuntime(ledgerStore, clk,
		ledger.WithLogger(appLogger.WithComponent("ledger")),
		ledger.WithMaxCallDepth(cfg.Ledger.MaxCallDepth),
	)
	runtime.Register("token", token.ProgramID, token.NewProgram())
	runtime.Register("concert_ticket", venues.ProgramID, venues.NewProgram())
	resumeCtx, resumeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = runtime.ResumeSlot(resumeCtx)
	resumeCancel()
	if err != nil {
		return fmt.Errorf("resuming ledger slot: %w", err)
	}

	cacheService := cache.NewService(db.GetRedisClient())
	if !cfg.UsesPostgres() {
		// A fresh in-memory ledger makes any cached view from a previous run stale
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_ALL); err != nil {
			appLogger.Warn("Failed to clear stale cache entries", slog.Any("error", err))
		}
		cancel()
	}
	runtime.OnCommit(transactions.InvalidateOnCommit(cacheService))

	publisher, err := notifications.NewPublisher(cfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing event publisher", slog.Any("error", err))
		}
	}()
	runtime.OnCommit(notifications.CommitHook(publisher))

	operatorService, err := operator.NewService(runtime, cfg, clk)
	if err != nil {
		return err
	}
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = operatorService.Bootstrap(bootCtx)
	bootCancel()
	if err != nil {
		return err
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &cfg.RateLimit, clk)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	router := routes.NewRouter(cfg, db, runtime, cacheService, operatorService, rateLimiter, appLogger)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router.Engine(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		info := operatorService.Info()
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_status", fmt.Sprintf("http://localhost:%s%s/status", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.String("store", cfg.Ledger.Store),
			slog.String("events", publisher.Name()),
			slog.String("faucet_mint", info.Mint.String()),
			slog.Bool("redis_cache", db.Redis != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return err
	}
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
	return nil
}
