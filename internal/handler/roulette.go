package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
	"telegram-casino-bot/internal/session"
)

// Callback uniques for roulette quick bets.
const (
	CallbackQuickRed   = "rl_red"
	CallbackQuickBlack = "rl_black"
)

// RouletteHandler runs chat-scoped roulette rounds. One round per chat;
// bets arrive through the /bet command or the quick-bet reactions and both
// go through the same intake, so the escrow and validation rules are
// identical regardless of entry point.
type RouletteHandler struct {
	cfg            *config.Config
	accountService *service.AccountService
	ledger         *service.LedgerService
	sessions       *session.Registry
	bets           *repository.RouletteRepository
}

// NewRouletteHandler creates a new RouletteHandler.
func NewRouletteHandler(
	cfg *config.Config,
	accountService *service.AccountService,
	ledger *service.LedgerService,
	sessions *session.Registry,
	bets *repository.RouletteRepository,
) *RouletteHandler {
	return &RouletteHandler{
		cfg:            cfg,
		accountService: accountService,
		ledger:         ledger,
		sessions:       sessions,
		bets:           bets,
	}
}

func rouletteKeyboard(quickAmount int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data(fmt.Sprintf("🔴 Red %d", quickAmount), CallbackQuickRed),
		markup.Data(fmt.Sprintf("⚫ Black %d", quickAmount), CallbackQuickBlack),
	))
	return markup
}

func roulettePanelText(round *roulette.Round, quickAmount int64) string {
	return fmt.Sprintf(
		"🎡 Roulette is open!\n\n"+
			"Players: %d | Total staked: %d\n\n"+
			"/bet <amount> <red|black|even|odd|low|high> places an outside bet\n"+
			"/bet <amount> number <0-36>, dozen <1-3> or column <1-3>\n"+
			"Tap a button for a quick %d coin color bet (once per round)\n"+
			"/spin spins the wheel",
		round.PlayerCount(), round.TotalStaked(), quickAmount,
	)
}

// HandleRoulette handles the /roulette command and opens a round.
func (h *RouletteHandler) HandleRoulette(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Roulette runs in group chats")
	}

	if _, active := h.sessions.RoundFor(chat.ID); active {
		return c.Reply("❌ A round is already open in this chat, /spin it first")
	}

	round := roulette.NewRound(chat.ID)
	quickAmount := h.cfg.Games.Roulette.QuickBetAmount

	msg, err := c.Bot().Send(chat, roulettePanelText(round, quickAmount), rouletteKeyboard(quickAmount))
	if err != nil {
		return err
	}

	s := &session.Session{
		Kind:   session.KindRoulette,
		ChatID: chat.ID,
		Game:   round,
	}
	target := session.Target{ChatID: chat.ID, MessageID: msg.ID}
	if err := h.sessions.RegisterRound(s, target); err != nil {
		_, _ = c.Bot().Edit(msg, "❌ A round is already open in this chat")
		return nil
	}

	log.Info().Str("round_id", round.ID).Int64("chat_id", chat.ID).Msg("roulette round opened")
	return nil
}

// placeBet is the single intake for all roulette bets. The round lock is
// held across the phase check, the escrow and the bet placement so a spin
// cannot interleave and strand an escrowed stake.
func (h *RouletteHandler) placeBet(ctx context.Context, s *session.Session, playerID, amount int64, kind roulette.BetKind, value string, quick bool) error {
	s.Lock()
	defer s.Unlock()
	if s.Done() {
		return roulette.ErrBettingClosed
	}

	round := s.Game.(*roulette.Round)

	// Full validation runs before the escrow so a rejected bet never
	// produces an escrow and refund pair in the journal.
	if err := round.CheckBet(playerID, amount, kind, value, quick); err != nil {
		return err
	}

	desc := fmt.Sprintf("roulette round %s", round.ID)
	if err := h.ledger.TryEscrow(ctx, playerID, amount, model.TxTypeRouletteBet, desc); err != nil {
		return err
	}

	if err := round.PlaceBet(playerID, amount, kind, value, quick); err != nil {
		h.refundBet(ctx, playerID, amount, desc)
		return err
	}
	s.Touch()

	// Persisted rows back the restart reimbursement sweep; the round
	// itself plays from memory.
	err := h.bets.AddBet(ctx, &model.RouletteBet{
		RoundID:  round.ID,
		PlayerID: playerID,
		Amount:   amount,
		BetKind:  string(kind),
		BetValue: value,
	})
	if err != nil {
		log.Error().Err(err).Str("round_id", round.ID).Msg("failed to persist roulette bet")
	}
	return nil
}

func (h *RouletteHandler) refundBet(ctx context.Context, playerID, amount int64, desc string) {
	if err := h.ledger.Refund(ctx, playerID, amount, desc); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("roulette refund failed")
	}
}

func betErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return "❌ Insufficient balance"
	case errors.Is(err, roulette.ErrBettingClosed):
		return "❌ Betting is closed"
	case errors.Is(err, roulette.ErrQuickBetUsed):
		return "❌ You already used your quick bet this round"
	case errors.Is(err, roulette.ErrInvalidBet):
		return "❌ Invalid bet"
	case errors.Is(err, roulette.ErrInvalidAmount), errors.Is(err, service.ErrInvalidAmount):
		return "❌ Invalid amount"
	default:
		return "❌ Could not place the bet, please try again later"
	}
}

// HandleBet handles the /bet command.
// Format: /bet <amount> <spec> [value]
func (h *RouletteHandler) HandleBet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	s, active := h.sessions.RoundFor(chat.ID)
	if !active {
		return c.Reply("❌ No open round. Start one with /roulette")
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /bet <amount> <red|black|even|odd|low|high|number N|dozen N|column N>")
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ Amount must be a positive number")
	}
	if max := h.cfg.Games.Roulette.MaxBet; max > 0 && amount > max {
		return c.Reply(fmt.Sprintf("❌ Maximum bet is %d", max))
	}

	valueArg := ""
	if len(args) > 2 {
		valueArg = args[2]
	}
	kind, value, err := roulette.ParseBetSpec(strings.ToLower(args[1]), valueArg)
	if err != nil {
		return c.Reply("❌ Unknown bet. Try red, black, even, odd, low, high, number N, dozen N or column N")
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	if err := h.placeBet(ctx, s, sender.ID, amount, kind, value, false); err != nil {
		return c.Reply(betErrorText(err))
	}

	bet := roulette.Bet{PlayerID: sender.ID, Amount: amount, Kind: kind, Value: value}
	return c.Reply(fmt.Sprintf("✅ @%s bet %d on %s (pays %dx)", displayName(sender), amount, bet.Label(), bet.Multiplier()), tele.Silent)
}

// HandleQuickBet handles the quick color bet reactions on the round panel.
func (h *RouletteHandler) HandleQuickBet(c tele.Context, color string) error {
	ctx := context.Background()
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil || callback.Message == nil {
		return nil
	}

	target := session.Target{ChatID: c.Chat().ID, MessageID: callback.Message.ID}
	s, err := h.sessions.Resolve(target)
	if err != nil || s.Kind != session.KindRoulette {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This round has ended"})
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Something went wrong", ShowAlert: true})
	}

	amount := h.cfg.Games.Roulette.QuickBetAmount
	if err := h.placeBet(ctx, s, sender.ID, amount, roulette.KindColor, color, true); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: betErrorText(err), ShowAlert: true})
	}

	// Refresh the panel counters.
	s.Lock()
	round := s.Game.(*roulette.Round)
	panel := roulettePanelText(round, amount)
	s.Unlock()
	_, _ = c.Bot().Edit(callback.Message, panel, rouletteKeyboard(amount))

	return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("✅ %d on %s", amount, color)})
}

// HandleMyBets handles the /mybets command, listing the sender's bets in
// the chat's open round.
func (h *RouletteHandler) HandleMyBets(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	s, active := h.sessions.RoundFor(chat.ID)
	if !active {
		return c.Reply("❌ No open round in this chat")
	}

	s.Lock()
	round := s.Game.(*roulette.Round)
	bets := round.BetsFor(sender.ID)
	s.Unlock()

	if len(bets) == 0 {
		return c.Reply("📭 You have no bets in this round", tele.Silent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎫 @%s, your bets this round:\n", displayName(sender))
	var total int64
	for _, bet := range bets {
		fmt.Fprintf(&b, "• %d on %s\n", bet.Amount, bet.Label())
		total += bet.Amount
	}
	fmt.Fprintf(&b, "Total staked: %d", total)
	return c.Reply(b.String(), tele.Silent)
}

// HandleSpin handles the /spin command: the wheel spins, the round settles
// and every winner is credited.
func (h *RouletteHandler) HandleSpin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	s, active := h.sessions.RoundFor(chat.ID)
	if !active {
		return c.Reply("❌ No open round. Start one with /roulette")
	}

	s.Lock()
	defer s.Unlock()
	if s.Done() {
		return c.Reply("❌ This round has already been settled")
	}

	round := s.Game.(*roulette.Round)
	drawn, err := round.Spin()
	if err != nil {
		return c.Reply("❌ This round cannot be spun")
	}

	credits, err := round.Settle()
	if err != nil {
		return c.Reply("❌ Settlement failed, please try again")
	}

	// The round leaves the registry before any money moves; late bets
	// and double spins resolve as stale. The quick-bet buttons come off
	// the panel at the same moment.
	panel, bound := h.sessions.BoundTarget(s)
	h.sessions.Remove(s)
	if bound {
		stored := tele.StoredMessage{MessageID: strconv.Itoa(panel.MessageID), ChatID: panel.ChatID}
		_, _ = c.Bot().Edit(stored, fmt.Sprintf("🎡 Roulette round closed. Players: %d | Total staked: %d",
			round.PlayerCount(), round.TotalStaked()))
	}

	h.ledger.CreditAll(ctx, credits, model.TxTypeRouletteWin, fmt.Sprintf("roulette round %s", round.ID))
	if err := h.bets.PurgeRound(ctx, round.ID); err != nil {
		log.Error().Err(err).Str("round_id", round.ID).Msg("failed to purge settled roulette bets")
	}

	log.Info().
		Str("round_id", round.ID).
		Int64("chat_id", chat.ID).
		Int("drawn", drawn).
		Int("winners", len(credits)).
		Msg("roulette round settled")

	return c.Send(spinResultText(round, credits))
}

func spinResultText(round *roulette.Round, credits map[int64]int64) string {
	drawn := round.Drawn()
	color := roulette.ColorOf(drawn)
	icon := map[string]string{
		roulette.ColorRed:   "🔴",
		roulette.ColorBlack: "⚫",
		roulette.ColorGreen: "🟢",
	}[color]

	var b strings.Builder
	fmt.Fprintf(&b, "🎡 The ball lands on %s %d (%s)!\n\n", icon, drawn, color)

	if len(credits) == 0 {
		b.WriteString("Nobody wins this round. The house thanks you.")
		return b.String()
	}
	b.WriteString("Payouts:\n")
	for playerID, amount := range credits {
		fmt.Fprintf(&b, "• player %d wins %d coins\n", playerID, amount)
	}
	return b.String()
}
