package service

import (
	"context"
	"errors"
	"fmt"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// ErrNotAuthorized means the caller lacks the issuer capability.
var ErrNotAuthorized = errors.New("not authorized")

// AdminService implements issuer operations: minting and removing currency
// and managing who may do so. Bot owners from the config always hold the
// issuer capability; further grants are persisted in the database.
type AdminService struct {
	cfg    *config.Config
	admins *repository.AdminRepository
	ledger *LedgerService
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(cfg *config.Config, admins *repository.AdminRepository, ledger *LedgerService) *AdminService {
	return &AdminService{
		cfg:    cfg,
		admins: admins,
		ledger: ledger,
	}
}

// IsIssuer reports whether a player may mint or remove currency.
func (s *AdminService) IsIssuer(ctx context.Context, playerID int64) (bool, error) {
	if s.cfg.IsOwner(playerID) {
		return true, nil
	}
	admin, err := s.admins.IsAdmin(ctx, playerID)
	if err != nil {
		return false, translate(err)
	}
	return admin, nil
}

// Grant gives a player the issuer capability. Only config owners may grant.
func (s *AdminService) Grant(ctx context.Context, ownerID, playerID int64) error {
	if !s.cfg.IsOwner(ownerID) {
		return ErrNotAuthorized
	}
	if err := s.admins.Grant(ctx, playerID, ownerID); err != nil {
		return translate(err)
	}
	return nil
}

// Revoke removes a persisted issuer grant. Config owners cannot be revoked.
// Reports whether a grant was actually removed.
func (s *AdminService) Revoke(ctx context.Context, ownerID, playerID int64) (bool, error) {
	if !s.cfg.IsOwner(ownerID) {
		return false, ErrNotAuthorized
	}
	removed, err := s.admins.Revoke(ctx, playerID)
	if err != nil {
		return false, translate(err)
	}
	return removed, nil
}

func (s *AdminService) requireIssuer(ctx context.Context, playerID int64) error {
	issuer, err := s.IsIssuer(ctx, playerID)
	if err != nil {
		return err
	}
	if !issuer {
		return ErrNotAuthorized
	}
	return nil
}

// AddCash mints amount into a player's wallet.
func (s *AdminService) AddCash(ctx context.Context, issuerID, playerID int64, amount int64) error {
	if err := s.requireIssuer(ctx, issuerID); err != nil {
		return err
	}
	desc := fmt.Sprintf("issued by %d", issuerID)
	return s.ledger.Credit(ctx, playerID, amount, model.TxTypeAdminCredit, desc)
}

// RemoveCash removes up to amount from a player's wallet, clamping the
// balance at zero. Returns the amount actually removed.
func (s *AdminService) RemoveCash(ctx context.Context, issuerID, playerID int64, amount int64) (int64, error) {
	if err := s.requireIssuer(ctx, issuerID); err != nil {
		return 0, err
	}
	desc := fmt.Sprintf("removed by %d", issuerID)
	return s.ledger.DebitClamped(ctx, playerID, amount, model.TxTypeAdminDebit, desc)
}
