// Package main is the entry point for the cx.Arcade bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/bot"
	"cx-arcade-bot/internal/config"
	"cx-arcade-bot/internal/game"
	"cx-arcade-bot/internal/pkg/db"
	"cx-arcade-bot/internal/pkg/lock"
	"cx-arcade-bot/internal/repository"
	"cx-arcade-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Log)
	log.Info().Str("driver", cfg.Database.Driver).Msg("Configuration loaded successfully")

	// Cancelled on shutdown; stops pacing and lock waits of in-flight commands
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accounts, wagers, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	// Initialize services
	accountService := service.NewAccountService(accounts, service.AccountConfig{
		CreatorID:     cfg.Creator.TelegramID,
		CreatorHandle: cfg.Creator.Handle,
		StartBalance:  cfg.Game.StartBalance,
		BonusAmount:   cfg.Game.BonusAmount,
	})
	rankingService := service.NewRankingService(accounts)
	wagerService := service.NewWagerService(accounts, wagers, game.Shared, cfg.Game.PacingDelay)

	if n, err := wagerService.ReportPending(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to check unsettled wagers")
	} else if n > 0 {
		log.Warn().Int("count", n).Msg("Unsettled wagers found from a previous run")
	}

	creator, created, err := accountService.EnsureCreator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize creator")
	}
	log.Info().
		Str("handle", cfg.Creator.Handle).
		Int64("telegram_id", creator.ExternalID).
		Bool("created", created).
		Msg("Creator ready")

	deps := &bot.Dependencies{
		Config:         cfg,
		AccountService: accountService,
		RankingService: rankingService,
		WagerService:   wagerService,
		UserLock:       lock.NewUserLock(),
	}

	telegramBot, err := bot.New(ctx, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	cancel()
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// setupLogging applies the configured level and output format.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// openStore connects the configured storage driver. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (service.AccountStore, service.WagerStore, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return repository.NewMemoryAccountRepository(), repository.NewMemoryWagerRepository(), func() {}, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Migrate(); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return repository.NewAccountRepository(pool.Pool), repository.NewWagerRepository(pool.Pool), pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
