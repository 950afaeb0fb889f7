package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/game/pool"
	"telegram-casino-bot/internal/service"
)

// Callback uniques for betting pool quick joins.
const (
	CallbackJoinRed  = "ev_red"
	CallbackJoinBlue = "ev_blue"
)

// EventHandler runs multi-party betting pools.
type EventHandler struct {
	accountService *service.AccountService
	eventService   *service.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(accountService *service.AccountService, eventService *service.EventService) *EventHandler {
	return &EventHandler{
		accountService: accountService,
		eventService:   eventService,
	}
}

func eventKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("🔴 Join red", CallbackJoinRed),
		markup.Data("🔵 Join blue", CallbackJoinBlue),
	))
	return markup
}

// HandleCreateBet handles the /createbet command.
// Format: /createbet <entry_cost> <description>
func (h *EventHandler) HandleCreateBet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /createbet <entry cost> <description>")
	}

	cost, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || cost <= 0 {
		return c.Reply("❌ Entry cost must be a positive number")
	}
	description := strings.Join(args[1:], " ")

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	event, err := h.eventService.Create(ctx, "pool", description, cost, sender.ID)
	if err != nil {
		return c.Reply("❌ Could not create the bet, please try again later")
	}

	text := fmt.Sprintf(
		"🎫 Bet #%d: %s\n\n"+
			"Entry: %d coins | Sides: red vs blue\n\n"+
			"Join with the buttons below or /joinbet %d <red|blue>\n"+
			"Settled with /endbet %d <red|blue>",
		event.EventID, description, cost, event.EventID, event.EventID,
	)
	msg, err := c.Bot().Send(chat, text, eventKeyboard())
	if err != nil {
		return err
	}

	if err := h.eventService.BindMessage(ctx, event.EventID, chat.ID, msg.ID); err != nil {
		log.Error().Err(err).Int64("event_id", event.EventID).Msg("failed to bind event message")
	}
	return nil
}

func joinErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return "❌ No such bet"
	case errors.Is(err, service.ErrEventFinished):
		return "❌ That bet has already been settled"
	case errors.Is(err, service.ErrAlreadyJoined):
		return "❌ You already joined this bet"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "❌ Insufficient balance"
	case errors.Is(err, service.ErrInvalidChoice):
		return "❌ Pick red or blue"
	default:
		return "❌ Could not join the bet, please try again later"
	}
}

// HandleJoinBet handles the /joinbet command.
// Format: /joinbet <event_id> <red|blue>
func (h *EventHandler) HandleJoinBet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /joinbet <bet id> <red|blue>")
	}
	eventID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Usage: /joinbet <bet id> <red|blue>")
	}
	choice := strings.ToLower(args[1])

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	event, err := h.eventService.Join(ctx, eventID, sender.ID, choice)
	if err != nil {
		return c.Reply(joinErrorText(err))
	}

	return c.Reply(fmt.Sprintf("✅ @%s joined bet #%d on %s (%d coins in the pot)",
		displayName(sender), eventID, choice, event.BetCost))
}

// HandleJoinCallback handles the quick-join reactions on a bet's prompt.
func (h *EventHandler) HandleJoinCallback(c tele.Context, choice string) error {
	ctx := context.Background()
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil || callback.Message == nil {
		return nil
	}

	event, err := h.eventService.ResolveMessage(ctx, c.Chat().ID, callback.Message.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This bet has ended"})
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Something went wrong", ShowAlert: true})
	}

	if _, err := h.eventService.Join(ctx, event.EventID, sender.ID, choice); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: joinErrorText(err), ShowAlert: true})
	}

	return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("✅ Joined on %s for %d coins", choice, event.BetCost)})
}

// HandleOpenBets handles the /bets command, listing pools still open.
func (h *EventHandler) HandleOpenBets(c tele.Context) error {
	ctx := context.Background()

	events, err := h.eventService.ListOpen(ctx)
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}
	if len(events) == 0 {
		return c.Reply("📭 No open bets right now")
	}

	var b strings.Builder
	b.WriteString("🎫 Open bets:\n")
	for _, e := range events {
		fmt.Fprintf(&b, "• #%d: %s (entry %d)\n", e.EventID, e.Description, e.BetCost)
	}
	return c.Reply(b.String())
}

// HandleEndBet handles the /endbet command.
// Format: /endbet <event_id> <red|blue>
func (h *EventHandler) HandleEndBet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /endbet <bet id> <winning side>")
	}
	eventID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Reply("❌ Usage: /endbet <bet id> <winning side>")
	}
	winning := strings.ToLower(args[1])

	settlement, err := h.eventService.Settle(ctx, eventID, winning)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventFinished):
			return c.Reply("❌ That bet has already been settled")
		case errors.Is(err, service.ErrEventNotFound):
			return c.Reply("❌ No such bet")
		case errors.Is(err, service.ErrInvalidChoice):
			return c.Reply("❌ Pick red or blue as the winning side")
		default:
			return c.Reply("❌ Could not settle the bet, please try again later")
		}
	}

	return c.Send(settlementText(eventID, settlement))
}

func settlementText(eventID int64, s *pool.Settlement) string {
	if len(s.Winners) == 0 {
		return fmt.Sprintf(
			"🎫 Bet #%d settled: %s wins!\n\nNobody picked the winning side. The pot of %d coins goes to the house.",
			eventID, s.WinningChoice, s.Pot,
		)
	}
	return fmt.Sprintf(
		"🎫 Bet #%d settled: %s wins!\n\n🏆 %d winner(s) share the pot of %d coins: %d each",
		eventID, s.WinningChoice, len(s.Winners), s.Pot, s.Share,
	)
}
