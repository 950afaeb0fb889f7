package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/service"
)

// AdminHandler handles issuer commands: minting and removing currency and
// managing issuer grants.
type AdminHandler struct {
	accountService *service.AccountService
	adminService   *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService, adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		adminService:   adminService,
	}
}

// parseCashArgs extracts the target and amount from an issuer command.
// The target comes from a mention, a reply, or a numeric ID argument.
func parseCashArgs(c tele.Context) (int64, int64, error) {
	args := c.Args()
	if len(args) < 1 {
		return 0, 0, errors.New("missing amount")
	}

	amount, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, errors.New("invalid amount")
	}

	if target := resolveTarget(c, ""); target != nil {
		return target.ID, amount, nil
	}
	if len(args) >= 2 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return id, amount, nil
		}
	}
	return 0, 0, errors.New("missing target")
}

// parseTargetArg extracts just a target player from a command.
func parseTargetArg(c tele.Context) (int64, error) {
	if target := resolveTarget(c, ""); target != nil {
		return target.ID, nil
	}
	args := c.Args()
	if len(args) >= 1 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, errors.New("missing target")
}

// HandleAddCash handles the /addcash command.
// Format: /addcash <user_id> <amount>, mention, or reply.
func (h *AdminHandler) HandleAddCash(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseCashArgs(c)
	if err != nil {
		return c.Reply("❌ Usage: /addcash <user> <amount>")
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, targetID, ""); err != nil {
		return c.Reply("❌ Operation failed, please try again later")
	}

	if err := h.adminService.AddCash(ctx, sender.ID, targetID, amount); err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return c.Reply("❌ You are not allowed to do that")
		}
		return c.Reply("❌ Operation failed, please try again later")
	}

	log.Info().
		Int64("issuer_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "addcash").
		Msg("issuer operation executed")

	return c.Reply(fmt.Sprintf("✅ Added %d coins to player %d", amount, targetID))
}

// HandleRemoveCash handles the /removecash command. The removal clamps at
// zero rather than overdrawing the wallet.
func (h *AdminHandler) HandleRemoveCash(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseCashArgs(c)
	if err != nil {
		return c.Reply("❌ Usage: /removecash <user> <amount>")
	}

	removed, err := h.adminService.RemoveCash(ctx, sender.ID, targetID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return c.Reply("❌ You are not allowed to do that")
		case errors.Is(err, service.ErrWalletNotFound):
			return c.Reply("❌ That player has no wallet")
		default:
			return c.Reply("❌ Operation failed, please try again later")
		}
	}

	log.Info().
		Int64("issuer_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", removed).
		Str("operation", "removecash").
		Msg("issuer operation executed")

	if removed < amount {
		return c.Reply(fmt.Sprintf("✅ Removed %d coins from player %d (wallet is now empty)", removed, targetID))
	}
	return c.Reply(fmt.Sprintf("✅ Removed %d coins from player %d", removed, targetID))
}

// HandleSetAdmin handles the /setadmin command. Owner only.
func (h *AdminHandler) HandleSetAdmin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, err := parseTargetArg(c)
	if err != nil {
		return c.Reply("❌ Usage: /setadmin <user>")
	}

	if err := h.adminService.Grant(ctx, sender.ID, targetID); err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return c.Reply("❌ Only the bot owner can manage admins")
		}
		return c.Reply("❌ Operation failed, please try again later")
	}

	log.Info().
		Int64("owner_id", sender.ID).
		Int64("target_id", targetID).
		Str("operation", "setadmin").
		Msg("issuer grant added")

	return c.Reply(fmt.Sprintf("✅ Player %d can now issue currency", targetID))
}

// HandleDelAdmin handles the /deladmin command. Owner only.
func (h *AdminHandler) HandleDelAdmin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, err := parseTargetArg(c)
	if err != nil {
		return c.Reply("❌ Usage: /deladmin <user>")
	}

	removed, err := h.adminService.Revoke(ctx, sender.ID, targetID)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return c.Reply("❌ Only the bot owner can manage admins")
		}
		return c.Reply("❌ Operation failed, please try again later")
	}
	if !removed {
		return c.Reply(fmt.Sprintf("❌ Player %d has no admin grant", targetID))
	}

	log.Info().
		Int64("owner_id", sender.ID).
		Int64("target_id", targetID).
		Str("operation", "deladmin").
		Msg("issuer grant removed")

	return c.Reply(fmt.Sprintf("✅ Player %d can no longer issue currency", targetID))
}
