// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDailyNotReady     = errors.New("daily reward not ready")
)

const walletColumns = `player_id, username, balance, last_daily_claim, created_at, updated_at`

// WalletRepository handles wallet persistence.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository instance.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(
		&w.PlayerID,
		&w.Username,
		&w.Balance,
		&w.LastDailyClaim,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create creates a wallet with a zero starting balance.
func (r *WalletRepository) Create(ctx context.Context, playerID int64, username string) (*model.Wallet, error) {
	const query = `
		INSERT INTO wallets (player_id, username, balance, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, playerID, username))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

// GetByID retrieves a wallet by player ID.
// Returns ErrWalletNotFound if the wallet does not exist.
func (r *WalletRepository) GetByID(ctx context.Context, playerID int64) (*model.Wallet, error) {
	const query = `SELECT ` + walletColumns + ` FROM wallets WHERE player_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// GetOrCreate retrieves a wallet by player ID, creating an empty one if it
// doesn't exist. Wallets are never pre-provisioned.
func (r *WalletRepository) GetOrCreate(ctx context.Context, playerID int64, username string) (*model.Wallet, bool, error) {
	w, err := r.GetByID(ctx, playerID)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, false, err
	}

	w, err = r.Create(ctx, playerID, username)
	if err != nil {
		// Race: another request may have created the wallet first.
		w, err = r.GetByID(ctx, playerID)
		if err != nil {
			return nil, false, err
		}
		return w, false, nil
	}
	return w, true, nil
}

// Credit adds amount to a wallet's balance and returns the updated wallet.
func (r *WalletRepository) Credit(ctx context.Context, playerID int64, amount int64) (*model.Wallet, error) {
	const query = `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE player_id = $1
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, playerID, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return w, nil
}

// TryDebit subtracts amount from a wallet only if the balance covers it.
// The balance check and the update are a single conditional statement, so
// two concurrent debits can never overdraw the wallet.
// Returns ErrInsufficientFunds when the balance is too low.
func (r *WalletRepository) TryDebit(ctx context.Context, playerID int64, amount int64) (*model.Wallet, error) {
	const query = `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE player_id = $1 AND balance >= $2
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, playerID, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := r.Exists(ctx, playerID)
			if exErr != nil {
				return nil, exErr
			}
			if !exists {
				return nil, ErrWalletNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return w, nil
}

// DebitClamped removes up to amount from a wallet, never dropping the
// balance below zero. Used for issuer removals.
func (r *WalletRepository) DebitClamped(ctx context.Context, playerID int64, amount int64) (*model.Wallet, int64, error) {
	const query = `
		WITH old AS (
			SELECT balance FROM wallets WHERE player_id = $1
		)
		UPDATE wallets
		SET balance = GREATEST(wallets.balance - $2, 0), updated_at = NOW()
		FROM old
		WHERE wallets.player_id = $1
		RETURNING wallets.player_id, wallets.username, wallets.balance,
			wallets.last_daily_claim, wallets.created_at, wallets.updated_at,
			LEAST($2, old.balance)`

	var w model.Wallet
	var removed int64
	err := r.pool.QueryRow(ctx, query, playerID, amount).Scan(
		&w.PlayerID,
		&w.Username,
		&w.Balance,
		&w.LastDailyClaim,
		&w.CreatedAt,
		&w.UpdatedAt,
		&removed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return &w, removed, nil
}

// GetTop retrieves the richest wallets.
func (r *WalletRepository) GetTop(ctx context.Context, limit int) ([]*model.Wallet, error) {
	const query = `
		SELECT ` + walletColumns + `
		FROM wallets
		ORDER BY balance DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}
	return wallets, nil
}

// ClaimDaily credits the daily reward and stamps the claim time in one
// statement, guarded by the cooldown so a double tap cannot claim twice.
// Returns ErrDailyNotReady with the remaining wait when the cooldown has
// not elapsed.
func (r *WalletRepository) ClaimDaily(ctx context.Context, playerID int64, reward int64, cooldown time.Duration) (*model.Wallet, error) {
	const query = `
		UPDATE wallets
		SET balance = balance + $2, last_daily_claim = NOW(), updated_at = NOW()
		WHERE player_id = $1
		  AND (last_daily_claim IS NULL OR last_daily_claim <= NOW() - $3::interval)
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, playerID, reward, cooldown.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDailyNotReady
		}
		return nil, fmt.Errorf("failed to claim daily reward: %w", err)
	}
	return w, nil
}

// NextDailyClaim reports when the wallet may next claim the daily reward.
// A zero time means the reward is available now.
func (r *WalletRepository) NextDailyClaim(ctx context.Context, playerID int64, cooldown time.Duration) (time.Time, error) {
	w, err := r.GetByID(ctx, playerID)
	if err != nil {
		return time.Time{}, err
	}
	if w.LastDailyClaim == nil {
		return time.Time{}, nil
	}
	next := w.LastDailyClaim.Add(cooldown)
	if !next.After(time.Now()) {
		return time.Time{}, nil
	}
	return next, nil
}

// UpdateUsername refreshes the stored username after a rename.
func (r *WalletRepository) UpdateUsername(ctx context.Context, playerID int64, username string) error {
	const query = `
		UPDATE wallets
		SET username = $2, updated_at = NOW()
		WHERE player_id = $1
	`

	result, err := r.pool.Exec(ctx, query, playerID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// Exists checks if a wallet exists for the given player ID.
func (r *WalletRepository) Exists(ctx context.Context, playerID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM wallets WHERE player_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, playerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	return exists, nil
}
