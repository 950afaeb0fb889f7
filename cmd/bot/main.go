// Package main is the entry point for the casino bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/bot"
	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/handler"
	"telegram-casino-bot/internal/pkg/db"
	"telegram-casino-bot/internal/pkg/lock"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
	"telegram-casino-bot/internal/session"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	go watchDatabase(ctx, dbPool)

	// Repositories
	walletRepo := repository.NewWalletRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	adminRepo := repository.NewAdminRepository(dbPool.Pool)
	eventRepo := repository.NewEventRepository(dbPool.Pool)
	rouletteRepo := repository.NewRouletteRepository(dbPool.Pool)

	// Shared locks for wallet balances and betting pools
	locks := lock.NewKeyLock()

	// Services
	accountService := service.NewAccountService(
		walletRepo,
		txRepo,
		cfg.Daily.Reward,
		time.Duration(cfg.Daily.CooldownHours)*time.Hour,
	)
	transferService := service.NewTransferService(walletRepo, txRepo, locks)
	ledgerService := service.NewLedgerService(walletRepo, txRepo, locks)
	adminService := service.NewAdminService(cfg, adminRepo, ledgerService)
	eventService := service.NewEventService(eventRepo, ledgerService, locks)

	// In-memory game sessions
	sessions := session.NewRegistry()

	// Reclaim escrow stranded by a previous crash, then start the idle sweep
	sweeper := handler.NewSweeper(ledgerService, sessions, rouletteRepo, cfg.Games.Session.AbandonAfter)
	if err := sweeper.ReimburseStale(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reimburse stale roulette bets")
	}
	sweeper.Start(ctx)

	deps := &bot.Dependencies{
		Config:          cfg,
		AccountService:  accountService,
		TransferService: transferService,
		AdminService:    adminService,
		EventService:    eventService,
		LedgerService:   ledgerService,
		Sessions:        sessions,
		RouletteRepo:    rouletteRepo,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

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

// watchDatabase pings the pool on an interval so a dropped connection shows
// up in the logs before a player hits it.
func watchDatabase(ctx context.Context, pool *db.Pool) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pool.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("Database health check failed")
			}
		}
	}
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: wallets
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallets (
			player_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			last_daily_claim TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_wallets_balance ON wallets(balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: wallets table created")

	// Migration 2: transactions
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES wallets(player_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_player_time ON transactions(player_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type_time ON transactions(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: transactions table created")

	// Migration 3: bot admins
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bot_admins (
			player_id BIGINT PRIMARY KEY,
			granted_by BIGINT NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: bot_admins table created")

	// Migration 4: betting pool events and participants
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			event_id BIGSERIAL PRIMARY KEY,
			event_type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL,
			bet_cost BIGINT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			winning_choice VARCHAR(50),
			created_by BIGINT NOT NULL,
			message_id INT,
			chat_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS event_participants (
			event_id BIGINT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE,
			player_id BIGINT NOT NULL,
			choice VARCHAR(50) NOT NULL,
			paid_amount BIGINT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (event_id, player_id)
		);
		CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: events tables created")

	// Migration 5: persisted roulette escrow
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS roulette_bets (
			id BIGSERIAL PRIMARY KEY,
			round_id UUID NOT NULL,
			player_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			bet_kind VARCHAR(20) NOT NULL,
			bet_value VARCHAR(20) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_roulette_bets_round ON roulette_bets(round_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: roulette_bets table created")

	return nil
}
