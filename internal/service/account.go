package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// Account errors.
var (
	ErrDailyOnCooldown = errors.New("daily reward on cooldown")
)

// AccountService handles wallet lifecycle and the daily reward.
type AccountService struct {
	wallets     *repository.WalletRepository
	journal     *repository.TransactionRepository
	dailyReward int64
	cooldown    time.Duration
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	wallets *repository.WalletRepository,
	journal *repository.TransactionRepository,
	dailyReward int64,
	cooldown time.Duration,
) *AccountService {
	return &AccountService{
		wallets:     wallets,
		journal:     journal,
		dailyReward: dailyReward,
		cooldown:    cooldown,
	}
}

// EnsureWallet looks up a player's wallet, creating an empty one on first
// contact. Returns the wallet and whether it was newly created.
func (s *AccountService) EnsureWallet(ctx context.Context, playerID int64, username string) (*model.Wallet, bool, error) {
	w, created, err := s.wallets.GetOrCreate(ctx, playerID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	if !created && username != "" && w.Username != username {
		if err := s.wallets.UpdateUsername(ctx, playerID, username); err == nil {
			w.Username = username
		}
	}
	return w, created, nil
}

// GetWallet retrieves a wallet without creating one.
func (s *AccountService) GetWallet(ctx context.Context, playerID int64) (*model.Wallet, error) {
	w, err := s.wallets.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, translate(err)
	}
	return w, nil
}

// ClaimDaily claims the daily reward. The cooldown check and the credit
// are one conditional update in the repository, so concurrent claims
// cannot double-pay. Returns the updated wallet, or ErrDailyOnCooldown
// with the remaining wait.
func (s *AccountService) ClaimDaily(ctx context.Context, playerID int64, username string) (*model.Wallet, time.Duration, error) {
	if _, _, err := s.EnsureWallet(ctx, playerID, username); err != nil {
		return nil, 0, err
	}

	w, err := s.wallets.ClaimDaily(ctx, playerID, s.dailyReward, s.cooldown)
	if err != nil {
		if errors.Is(err, repository.ErrDailyNotReady) {
			next, nextErr := s.wallets.NextDailyClaim(ctx, playerID, s.cooldown)
			if nextErr != nil {
				return nil, 0, translate(nextErr)
			}
			return nil, time.Until(next), ErrDailyOnCooldown
		}
		return nil, 0, translate(err)
	}

	desc := "daily reward"
	_, _ = s.journal.Create(ctx, playerID, s.dailyReward, model.TxTypeDaily, &desc)
	return w, 0, nil
}

// History returns a player's most recent journal entries, newest first.
func (s *AccountService) History(ctx context.Context, playerID int64, limit int) ([]*model.Transaction, error) {
	txs, err := s.journal.GetByPlayerID(ctx, playerID, limit)
	if err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// Reward returns the configured daily reward amount.
func (s *AccountService) Reward() int64 {
	return s.dailyReward
}

// GetTop retrieves the richest wallets for the leaderboard.
func (s *AccountService) GetTop(ctx context.Context, limit int) ([]*model.Wallet, error) {
	wallets, err := s.wallets.GetTop(ctx, limit)
	if err != nil {
		return nil, translate(err)
	}
	return wallets, nil
}
