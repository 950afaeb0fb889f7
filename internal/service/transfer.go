package service

import (
	"context"
	"errors"
	"fmt"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/lock"
	"telegram-casino-bot/internal/repository"
)

// Transfer errors.
var (
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
	ErrSelfTransfer  = errors.New("cannot transfer to self")
)

// TransferService moves currency between players.
type TransferService struct {
	wallets *repository.WalletRepository
	journal *repository.TransactionRepository
	locks   *lock.KeyLock
}

// NewTransferService creates a new TransferService instance.
func NewTransferService(
	wallets *repository.WalletRepository,
	journal *repository.TransactionRepository,
	locks *lock.KeyLock,
) *TransferService {
	return &TransferService{
		wallets: wallets,
		journal: journal,
		locks:   locks,
	}
}

// Transfer moves amount from one wallet to another. Both wallet locks are
// held for the whole move, acquired in sorted order. The debit side is
// conditional, so the sender can never go negative; the recipient's wallet
// is created on the fly if they have never played.
func (s *TransferService) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	unlock := s.locks.LockAll([]string{lock.WalletKey(fromID), lock.WalletKey(toID)})
	defer unlock()

	if _, _, err := s.wallets.GetOrCreate(ctx, toID, ""); err != nil {
		return translate(err)
	}

	if _, err := s.wallets.TryDebit(ctx, fromID, amount); err != nil {
		return translate(err)
	}

	if _, err := s.wallets.Credit(ctx, toID, amount); err != nil {
		// Undo the debit so currency is not destroyed.
		_, _ = s.wallets.Credit(ctx, fromID, amount)
		return translate(err)
	}

	senderDesc := fmt.Sprintf("transfer to %d", toID)
	receiverDesc := fmt.Sprintf("transfer from %d", fromID)
	_, _ = s.journal.Create(ctx, fromID, -amount, model.TxTypeTransfer, &senderDesc)
	_, _ = s.journal.Create(ctx, toID, amount, model.TxTypeTransfer, &receiverDesc)

	return nil
}
