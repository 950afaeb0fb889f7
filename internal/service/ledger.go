// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/lock"
	"telegram-casino-bot/internal/repository"
)

// Ledger errors.
var (
	// ErrInsufficientFunds means a wallet cannot cover the requested stake.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLedgerUnavailable means the backing store could not be reached.
	// Callers must abort whatever commitment they were about to make.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrWalletNotFound means the player has no wallet yet.
	ErrWalletNotFound = errors.New("wallet not found")
)

// LedgerService is the single gateway for balance mutations. Every change
// goes through TryEscrow, Credit or DebitClamped, each of which journals a
// transaction row, so the journal and the balances always agree.
//
// Stakes follow the escrow pattern: TryEscrow removes the stake when the
// player commits to a game, Credit pays winnings at settlement, and Refund
// returns the stake when a game ends abnormally. A lost stake needs no
// further ledger action.
type LedgerService struct {
	wallets *repository.WalletRepository
	journal *repository.TransactionRepository
	locks   *lock.KeyLock
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(
	wallets *repository.WalletRepository,
	journal *repository.TransactionRepository,
	locks *lock.KeyLock,
) *LedgerService {
	return &LedgerService{
		wallets: wallets,
		journal: journal,
		locks:   locks,
	}
}

func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	default:
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
}

// Balance returns a wallet's current balance.
func (s *LedgerService) Balance(ctx context.Context, playerID int64) (int64, error) {
	w, err := s.wallets.GetByID(ctx, playerID)
	if err != nil {
		return 0, translate(err)
	}
	return w.Balance, nil
}

// TryEscrow atomically removes a stake from a wallet as the player commits
// to a wager. Returns ErrInsufficientFunds without any change when the
// balance is too low. The journal records the debit under txType.
func (s *LedgerService) TryEscrow(ctx context.Context, playerID int64, amount int64, txType string, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.locks.WithLock(lock.WalletKey(playerID), func() error {
		if _, err := s.wallets.TryDebit(ctx, playerID, amount); err != nil {
			return translate(err)
		}
		s.record(ctx, playerID, -amount, txType, description)
		return nil
	})
}

// Credit adds winnings or a refund to a wallet. The amount must be
// positive; settlements that pay nothing skip the call entirely.
func (s *LedgerService) Credit(ctx context.Context, playerID int64, amount int64, txType string, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.locks.WithLock(lock.WalletKey(playerID), func() error {
		if _, err := s.wallets.Credit(ctx, playerID, amount); err != nil {
			return translate(err)
		}
		s.record(ctx, playerID, amount, txType, description)
		return nil
	})
}

// Refund returns an escrowed stake after an abnormal end.
func (s *LedgerService) Refund(ctx context.Context, playerID int64, amount int64, description string) error {
	return s.Credit(ctx, playerID, amount, model.TxTypeRefund, description)
}

// CreditAll pays a settlement tally, one wallet at a time, holding each
// wallet's lock only for its own credit. Failures are logged and skipped so
// one broken wallet cannot block the rest of the payout.
func (s *LedgerService) CreditAll(ctx context.Context, credits map[int64]int64, txType string, description string) {
	for playerID, amount := range credits {
		if amount <= 0 {
			continue
		}
		if err := s.Credit(ctx, playerID, amount, txType, description); err != nil {
			log.Error().Err(err).
				Int64("player_id", playerID).
				Int64("amount", amount).
				Msg("settlement credit failed")
		}
	}
}

// DebitClamped removes up to amount from a wallet, clamping at zero.
// Returns the amount actually removed. Used by issuer removals.
func (s *LedgerService) DebitClamped(ctx context.Context, playerID int64, amount int64, txType string, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var removed int64
	err := s.locks.WithLock(lock.WalletKey(playerID), func() error {
		_, got, err := s.wallets.DebitClamped(ctx, playerID, amount)
		if err != nil {
			return translate(err)
		}
		removed = got
		if removed > 0 {
			s.record(ctx, playerID, -removed, txType, description)
		}
		return nil
	})
	return removed, err
}

// record appends a journal entry. Journal failures do not unwind the
// balance change that already landed; they are logged for reconciliation.
func (s *LedgerService) record(ctx context.Context, playerID int64, amount int64, txType string, description string) {
	var desc *string
	if description != "" {
		desc = &description
	}
	if _, err := s.journal.Create(ctx, playerID, amount, txType, desc); err != nil {
		log.Error().Err(err).
			Int64("player_id", playerID).
			Int64("amount", amount).
			Str("type", txType).
			Msg("failed to journal transaction")
	}
}
