// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-casino-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			player_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			last_daily_claim TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES wallets(player_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bot_admins (
			player_id BIGINT PRIMARY KEY,
			granted_by BIGINT NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS events (
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
		)`,
		`CREATE TABLE IF NOT EXISTS event_participants (
			event_id BIGINT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE,
			player_id BIGINT NOT NULL,
			choice VARCHAR(50) NOT NULL,
			paid_amount BIGINT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (event_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS roulette_bets (
			id BIGSERIAL PRIMARY KEY,
			round_id UUID NOT NULL,
			player_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			bet_kind VARCHAR(20) NOT NULL,
			bet_value VARCHAR(20) NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// WalletRepository Tests
// ============================================================================

func TestWalletRepository_CreateStartsEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	w, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), w.PlayerID)
	assert.Equal(t, "alice", w.Username)
	assert.Equal(t, int64(0), w.Balance)
	assert.Nil(t, w.LastDailyClaim)
	assert.False(t, w.CreatedAt.IsZero())
}

func TestWalletRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	w, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "alice", w.Username)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	w, created, err := repo.GetOrCreate(ctx, 12345, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(0), w.Balance)

	w, created, err = repo.GetOrCreate(ctx, 12345, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(12345), w.PlayerID)
}

func TestWalletRepository_Credit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	w, err := repo.Credit(ctx, 12345, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)

	_, err = repo.Credit(ctx, 99999, 100)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletRepository_TryDebit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)
	_, err = repo.Credit(ctx, 12345, 300)
	require.NoError(t, err)

	w, err := repo.TryDebit(ctx, 12345, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)

	// The remaining 100 does not cover 200; balance must be untouched.
	_, err = repo.TryDebit(ctx, 12345, 200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	w, err = repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)

	_, err = repo.TryDebit(ctx, 99999, 50)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletRepository_DebitClamped(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)
	_, err = repo.Credit(ctx, 12345, 300)
	require.NoError(t, err)

	w, removed, err := repo.DebitClamped(ctx, 12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), w.Balance)
	assert.Equal(t, int64(100), removed)

	// Removing more than the balance clamps at zero.
	w, removed, err = repo.DebitClamped(ctx, 12345, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, int64(200), removed)
}

func TestWalletRepository_GetTop(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, _ = repo.Create(ctx, 1, "alice")
	_, _ = repo.Create(ctx, 2, "bob")
	_, _ = repo.Create(ctx, 3, "carol")
	_, _ = repo.Credit(ctx, 1, 3000)
	_, _ = repo.Credit(ctx, 2, 1000)
	_, _ = repo.Credit(ctx, 3, 5000)

	wallets, err := repo.GetTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, wallets, 3)

	assert.Equal(t, int64(3), wallets[0].PlayerID)
	assert.Equal(t, int64(1), wallets[1].PlayerID)
	assert.Equal(t, int64(2), wallets[2].PlayerID)
}

func TestWalletRepository_ClaimDaily(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	// First claim always succeeds.
	w, err := repo.ClaimDaily(ctx, 12345, 500, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)
	require.NotNil(t, w.LastDailyClaim)

	// Immediate second claim is on cooldown.
	_, err = repo.ClaimDaily(ctx, 12345, 500, 24*time.Hour)
	assert.ErrorIs(t, err, ErrDailyNotReady)

	next, err := repo.NextDailyClaim(ctx, 12345, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	// Backdate the claim past the cooldown; the reward opens up again.
	_, err = pool.Exec(ctx, `UPDATE wallets SET last_daily_claim = NOW() - INTERVAL '25 hours' WHERE player_id = $1`, int64(12345))
	require.NoError(t, err)

	w, err = repo.ClaimDaily(ctx, 12345, 500, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)
}

func TestWalletRepository_UpdateUsername(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewWalletRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "oldname")
	require.NoError(t, err)

	err = repo.UpdateUsername(ctx, 12345, "newname")
	require.NoError(t, err)

	w, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "newname", w.Username)

	err = repo.UpdateUsername(ctx, 99999, "name")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

// ============================================================================
// TransactionRepository Tests
// ============================================================================

func TestTransactionRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	walletRepo := NewWalletRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := walletRepo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	desc := "blackjack win"
	tx, err := txRepo.Create(ctx, 12345, 500, model.TxTypeBlackjack, &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), tx.PlayerID)
	assert.Equal(t, int64(500), tx.Amount)
	assert.Equal(t, model.TxTypeBlackjack, tx.Type)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "blackjack win", *tx.Description)
}

func TestTransactionRepository_GetByPlayerID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	walletRepo := NewWalletRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := walletRepo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	_, _ = txRepo.Create(ctx, 12345, -100, model.TxTypeEscrow, nil)
	_, _ = txRepo.Create(ctx, 12345, 200, model.TxTypeBlackjack, nil)

	txs, err := txRepo.GetByPlayerID(ctx, 12345, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(200), txs[0].Amount)
}

func TestTransactionRepository_SumByType(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	walletRepo := NewWalletRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := walletRepo.Create(ctx, 12345, "alice")
	require.NoError(t, err)

	_, _ = txRepo.Create(ctx, 12345, -100, model.TxTypeEscrow, nil)
	_, _ = txRepo.Create(ctx, 12345, -50, model.TxTypeEscrow, nil)
	_, _ = txRepo.Create(ctx, 12345, 300, model.TxTypeBlackjack, nil)

	total, err := txRepo.SumByType(ctx, 12345, model.TxTypeEscrow)
	require.NoError(t, err)
	assert.Equal(t, int64(-150), total)
}

// ============================================================================
// AdminRepository Tests
// ============================================================================

func TestAdminRepository_GrantRevoke(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAdminRepository(pool)
	ctx := context.Background()

	admin, err := repo.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.False(t, admin)

	require.NoError(t, repo.Grant(ctx, 100, 1))
	// Granting again is a no-op, not an error.
	require.NoError(t, repo.Grant(ctx, 100, 1))

	admin, err = repo.IsAdmin(ctx, 100)
	require.NoError(t, err)
	assert.True(t, admin)

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, ids)

	removed, err := repo.Revoke(ctx, 100)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Revoke(ctx, 100)
	require.NoError(t, err)
	assert.False(t, removed)
}

// ============================================================================
// EventRepository Tests
// ============================================================================

func TestEventRepository_CreateAndJoin(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(pool)
	ctx := context.Background()

	e, err := repo.Create(ctx, "match", "red vs blue", 100, 1)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusOpen, e.Status)
	assert.Nil(t, e.WinningChoice)

	require.NoError(t, repo.AddParticipant(ctx, e.EventID, 10, "red", 100))
	require.NoError(t, repo.AddParticipant(ctx, e.EventID, 11, "blue", 100))

	// A second entry from the same player is rejected.
	err = repo.AddParticipant(ctx, e.EventID, 10, "blue", 100)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	participants, err := repo.GetParticipants(ctx, e.EventID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)
}

func TestEventRepository_FinishOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(pool)
	ctx := context.Background()

	e, err := repo.Create(ctx, "match", "red vs blue", 100, 1)
	require.NoError(t, err)

	finished, err := repo.Finish(ctx, e.EventID, "red")
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusFinished, finished.Status)
	require.NotNil(t, finished.WinningChoice)
	assert.Equal(t, "red", *finished.WinningChoice)

	// Settling twice must fail, not pay out twice.
	_, err = repo.Finish(ctx, e.EventID, "blue")
	assert.ErrorIs(t, err, ErrEventFinished)

	_, err = repo.GetOpenByID(ctx, e.EventID)
	assert.ErrorIs(t, err, ErrEventFinished)

	_, err = repo.Finish(ctx, 99999, "red")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepository_JoinAfterFinishRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(pool)
	ctx := context.Background()

	e, err := repo.Create(ctx, "match", "red vs blue", 100, 1)
	require.NoError(t, err)

	require.NoError(t, repo.AddParticipant(ctx, e.EventID, 10, "red", 100))

	_, err = repo.Finish(ctx, e.EventID, "red")
	require.NoError(t, err)

	// A late entry against the settled pool inserts nothing; the caller
	// sees the closed state and returns the escrow.
	err = repo.AddParticipant(ctx, e.EventID, 11, "blue", 100)
	assert.ErrorIs(t, err, ErrEventFinished)

	participants, err := repo.GetParticipants(ctx, e.EventID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestEventRepository_MessageBinding(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(pool)
	ctx := context.Background()

	e, err := repo.Create(ctx, "match", "red vs blue", 100, 1)
	require.NoError(t, err)

	require.NoError(t, repo.BindMessage(ctx, e.EventID, 500, 42))

	got, err := repo.GetByMessage(ctx, 500, 42)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, got.EventID)

	_, err = repo.GetByMessage(ctx, 500, 43)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

// ============================================================================
// RouletteRepository Tests
// ============================================================================

func TestRouletteRepository_RoundLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRouletteRepository(pool)
	ctx := context.Background()

	roundID := "0d9e8f36-8e6e-4e26-9f48-0a2b4c6d8e0f"
	require.NoError(t, repo.AddBet(ctx, &model.RouletteBet{
		RoundID: roundID, PlayerID: 10, Amount: 100, BetKind: "color", BetValue: "red",
	}))
	require.NoError(t, repo.AddBet(ctx, &model.RouletteBet{
		RoundID: roundID, PlayerID: 11, Amount: 50, BetKind: "number", BetValue: "17",
	}))

	bets, err := repo.GetByRound(ctx, roundID)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, int64(10), bets[0].PlayerID)

	stale, err := repo.ListStale(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	require.NoError(t, repo.PurgeRound(ctx, roundID))

	bets, err = repo.GetByRound(ctx, roundID)
	require.NoError(t, err)
	assert.Empty(t, bets)
}
