// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func displayName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return sender.FirstName
}

// HandleStart handles the /start command. A wallet is created empty on
// first contact; currency enters only through the daily reward or an issuer.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	username := displayName(sender)
	wallet, created, err := h.accountService.EnsureWallet(ctx, sender.ID, username)
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 Welcome @%s!\n\n"+
				"Your wallet is ready. Claim /daily to get started.\n\n"+
				"Commands:\n"+
				"/balance - check your balance\n"+
				"/daily - claim the daily reward\n"+
				"/top - leaderboard\n"+
				"/history - your recent transactions\n"+
				"/blackjack <stake> - play blackjack\n"+
				"/flipcoin <stake> - flip a coin\n"+
				"/bet <amount> <red|black|...> - bet on an open roulette round\n"+
				"/give @user <amount> - send coins",
			username,
		))
	}

	return c.Reply(fmt.Sprintf("👋 Welcome back @%s! Balance: %d coins", username, wallet.Balance))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	wallet, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender))
	if err != nil {
		return c.Reply("❌ Could not fetch your balance, please try again later")
	}

	return c.Reply(fmt.Sprintf("💰 Balance: %d coins", wallet.Balance))
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	wallet, remaining, err := h.accountService.ClaimDaily(ctx, sender.ID, displayName(sender))
	if err != nil {
		if errors.Is(err, service.ErrDailyOnCooldown) {
			hours := int(remaining.Hours())
			minutes := int(remaining.Minutes()) % 60
			return c.Reply(fmt.Sprintf("⏰ Already claimed. Next reward in %dh %dm", hours, minutes))
		}
		return c.Reply("❌ Could not claim the daily reward, please try again later")
	}

	return c.Reply(fmt.Sprintf("✅ Claimed %d coins! Balance: %d", h.accountService.Reward(), wallet.Balance))
}

// HandleHistory handles the /history command, listing the sender's most
// recent journal entries.
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	txs, err := h.accountService.History(ctx, sender.ID, 10)
	if err != nil {
		return c.Reply("❌ Could not fetch your history, please try again later")
	}
	if len(txs) == 0 {
		return c.Reply("📋 No transactions yet. Claim /daily to get started")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 @%s, your last %d transactions:\n\n", displayName(c.Sender()), len(txs))
	for _, tx := range txs {
		sign := "+"
		if tx.Amount < 0 {
			sign = ""
		}
		line := fmt.Sprintf("%s%d (%s)", sign, tx.Amount, tx.Type)
		if tx.Description != nil && *tx.Description != "" {
			line += " - " + *tx.Description
		}
		b.WriteString("• " + line + "\n")
	}
	return c.Reply(b.String(), tele.Silent)
}

// HandleTop handles the /top command.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()

	wallets, err := h.accountService.GetTop(ctx, 10)
	if err != nil {
		return c.Reply("❌ Could not fetch the leaderboard, please try again later")
	}
	if len(wallets) == 0 {
		return c.Reply("📋 Nobody has any coins yet")
	}

	var b strings.Builder
	b.WriteString("🏆 Richest players\n\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, w := range wallets {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		name := w.Username
		if name == "" {
			name = fmt.Sprintf("player %d", w.PlayerID)
		}
		fmt.Fprintf(&b, "%s %s: %d coins\n", prefix, name, w.Balance)
	}
	return c.Reply(b.String())
}
