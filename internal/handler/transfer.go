package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/service"
)

// TransferHandler handles player-to-player transfers.
type TransferHandler struct {
	accountService  *service.AccountService
	transferService *service.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(
	accountService *service.AccountService,
	transferService *service.TransferService,
) *TransferHandler {
	return &TransferHandler{
		accountService:  accountService,
		transferService: transferService,
	}
}

// resolveTarget finds the recipient from a mention entity or the replied-to
// message. The Bot API cannot look players up by bare username.
func resolveTarget(c tele.Context, targetUsername string) *tele.User {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	for _, entity := range msg.Entities {
		if entity.Type == tele.EntityMention && entity.User != nil {
			if targetUsername == "" || entity.User.Username == targetUsername {
				return entity.User
			}
		}
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		reply := msg.ReplyTo.Sender
		if targetUsername == "" || reply.Username == targetUsername {
			return reply
		}
	}
	return nil
}

// HandleGive handles the /give command.
// Formats: /give @user <amount>, or /give <amount> as a reply.
func (h *TransferHandler) HandleGive(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ Usage: /give @user <amount> (or reply with /give <amount>)")
	}

	// The amount is the last argument; anything before it names the target.
	amount, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ Amount must be a positive number")
	}

	targetUsername := ""
	if len(args) > 1 && strings.HasPrefix(args[0], "@") {
		targetUsername = strings.TrimPrefix(args[0], "@")
	}

	target := resolveTarget(c, targetUsername)
	if target == nil {
		return c.Reply("❌ Could not find the recipient. Mention them or reply to their message")
	}
	if target.IsBot {
		return c.Reply("❌ Bots cannot hold coins")
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}
	if _, _, err := h.accountService.EnsureWallet(ctx, target.ID, displayName(target)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	err = h.transferService.Transfer(ctx, sender.ID, target.ID, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientFunds):
			return c.Reply("❌ Insufficient balance")
		case errors.Is(err, service.ErrSelfTransfer):
			return c.Reply("❌ You cannot send coins to yourself")
		case errors.Is(err, service.ErrInvalidAmount):
			return c.Reply("❌ Amount must be a positive number")
		default:
			return c.Reply("❌ Transfer failed, please try again later")
		}
	}

	wallet, err := h.accountService.GetWallet(ctx, sender.ID)
	if err != nil {
		return c.Reply(fmt.Sprintf("✅ Sent %d coins to @%s", amount, displayName(target)))
	}
	return c.Reply(fmt.Sprintf(
		"✅ Sent %d coins to @%s\n💰 Balance: %d coins",
		amount, displayName(target), wallet.Balance,
	))
}
