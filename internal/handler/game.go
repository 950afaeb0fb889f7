package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game/blackjack"
	"telegram-casino-bot/internal/game/coinflip"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/service"
	"telegram-casino-bot/internal/session"
)

// Callback uniques for the single-player games.
const (
	CallbackHit   = "bj_hit"
	CallbackStand = "bj_stand"
	CallbackHeads = "cf_heads"
	CallbackTails = "cf_tails"
)

// GameHandler runs the single-player games: blackjack and coin flip. Both
// follow the same lifecycle: the stake is escrowed before the session is
// registered, reactions drive the state machine, and the session is removed
// before the winnings are credited.
type GameHandler struct {
	cfg            *config.Config
	accountService *service.AccountService
	ledger         *service.LedgerService
	sessions       *session.Registry
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(
	cfg *config.Config,
	accountService *service.AccountService,
	ledger *service.LedgerService,
	sessions *session.Registry,
) *GameHandler {
	return &GameHandler{
		cfg:            cfg,
		accountService: accountService,
		ledger:         ledger,
		sessions:       sessions,
	}
}

// parseStake reads and bounds a stake argument.
func parseStake(c tele.Context, maxStake int64) (int64, error) {
	args := c.Args()
	if len(args) < 1 {
		return 0, errors.New("missing stake")
	}
	stake, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || stake <= 0 {
		return 0, errors.New("invalid stake")
	}
	if maxStake > 0 && stake > maxStake {
		return 0, fmt.Errorf("stake above limit %d", maxStake)
	}
	return stake, nil
}

func blackjackKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("🃏 Hit", CallbackHit),
		markup.Data("✋ Stand", CallbackStand),
	))
	return markup
}

func coinflipKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("🪙 Heads", CallbackHeads),
		markup.Data("🪙 Tails", CallbackTails),
	))
	return markup
}

func blackjackTableText(username string, g *blackjack.Game, stake int64) string {
	return fmt.Sprintf(
		"🃏 Blackjack | @%s | stake %d\n\n"+
			"Your hand: %s (%d)\n"+
			"Dealer shows: %s",
		username, stake,
		blackjack.FormatHand(g.PlayerHand()), g.PlayerValue(),
		g.DealerUpCard(),
	)
}

func blackjackResultText(username string, g *blackjack.Game, outcome blackjack.Outcome, stake, balance int64) string {
	var verdict string
	switch outcome {
	case blackjack.OutcomeBlackjack:
		verdict = fmt.Sprintf("🎊 Blackjack! You win %d coins!", stake)
	case blackjack.OutcomePlayerWin, blackjack.OutcomeDealerBust:
		verdict = fmt.Sprintf("🎉 You win %d coins!", stake)
	case blackjack.OutcomePush:
		verdict = "😐 Push. Your stake is returned."
	default:
		verdict = fmt.Sprintf("😢 You lose %d coins.", stake)
	}
	return fmt.Sprintf(
		"🃏 Blackjack | @%s\n\n"+
			"Your hand: %s (%d)\n"+
			"Dealer: %s (%d)\n\n"+
			"%s\n💰 Balance: %d",
		username,
		blackjack.FormatHand(g.PlayerHand()), g.PlayerValue(),
		blackjack.FormatHand(g.DealerHand()), g.DealerValue(),
		verdict, balance,
	)
}

// HandleBlackjack handles the /blackjack command.
// Format: /blackjack <stake>
func (h *GameHandler) HandleBlackjack(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil || c.Chat() == nil {
		return nil
	}
	username := displayName(sender)

	stake, err := parseStake(c, h.cfg.Games.Blackjack.MaxStake)
	if err != nil {
		return c.Reply(fmt.Sprintf("❌ Usage: /blackjack <stake> (1-%d)", h.cfg.Games.Blackjack.MaxStake))
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, username); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	if _, active := h.sessions.OwnedBy(sender.ID); active {
		return c.Reply("❌ Finish your current game first")
	}

	if err := h.ledger.TryEscrow(ctx, sender.ID, stake, model.TxTypeEscrow, "blackjack stake"); err != nil {
		if errors.Is(err, service.ErrInsufficientFunds) {
			return c.Reply("❌ Insufficient balance")
		}
		return c.Reply("❌ Could not place your stake, please try again later")
	}

	g, outcome := blackjack.New()

	// A natural 21 settles before any session exists.
	if outcome.Terminal() {
		h.settleBlackjack(ctx, sender.ID, stake, outcome)
		balance, _ := h.ledger.Balance(ctx, sender.ID)
		return c.Reply(blackjackResultText(username, g, outcome, stake, balance))
	}

	msg, err := c.Bot().Send(c.Chat(), blackjackTableText(username, g, stake), blackjackKeyboard())
	if err != nil {
		h.refund(ctx, sender.ID, stake, "blackjack prompt failed")
		return err
	}

	s := &session.Session{
		Kind:   session.KindBlackjack,
		Owner:  sender.ID,
		ChatID: c.Chat().ID,
		Stake:  stake,
		Game:   g,
	}
	target := session.Target{ChatID: c.Chat().ID, MessageID: msg.ID}
	if err := h.sessions.RegisterOwned(s, target); err != nil {
		h.refund(ctx, sender.ID, stake, "blackjack session rejected")
		_, _ = c.Bot().Edit(msg, "❌ You already have a game in progress. Stake refunded.")
		return nil
	}
	return nil
}

// HandleCoinFlip handles the /flipcoin command.
// Format: /flipcoin <stake>
func (h *GameHandler) HandleCoinFlip(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil || c.Chat() == nil {
		return nil
	}
	username := displayName(sender)

	stake, err := parseStake(c, h.cfg.Games.CoinFlip.MaxStake)
	if err != nil {
		return c.Reply(fmt.Sprintf("❌ Usage: /flipcoin <stake> (1-%d)", h.cfg.Games.CoinFlip.MaxStake))
	}

	if _, _, err := h.accountService.EnsureWallet(ctx, sender.ID, username); err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	if _, active := h.sessions.OwnedBy(sender.ID); active {
		return c.Reply("❌ Finish your current game first")
	}

	if err := h.ledger.TryEscrow(ctx, sender.ID, stake, model.TxTypeEscrow, "coin flip stake"); err != nil {
		if errors.Is(err, service.ErrInsufficientFunds) {
			return c.Reply("❌ Insufficient balance")
		}
		return c.Reply("❌ Could not place your stake, please try again later")
	}

	text := fmt.Sprintf("🪙 Coin flip | @%s | stake %d\n\nCall it!", username, stake)
	msg, err := c.Bot().Send(c.Chat(), text, coinflipKeyboard())
	if err != nil {
		h.refund(ctx, sender.ID, stake, "coin flip prompt failed")
		return err
	}

	s := &session.Session{
		Kind:   session.KindCoinFlip,
		Owner:  sender.ID,
		ChatID: c.Chat().ID,
		Stake:  stake,
		Game:   coinflip.New(),
	}
	target := session.Target{ChatID: c.Chat().ID, MessageID: msg.ID}
	if err := h.sessions.RegisterOwned(s, target); err != nil {
		h.refund(ctx, sender.ID, stake, "coin flip session rejected")
		_, _ = c.Bot().Edit(msg, "❌ You already have a game in progress. Stake refunded.")
		return nil
	}
	return nil
}

// resolveOwned resolves a reaction back to the sender's own session.
// Responds to the callback itself when the target is stale or the reactor
// is not the owner; the caller only proceeds on a non-nil session.
func (h *GameHandler) resolveOwned(c tele.Context, kind session.Kind) *session.Session {
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil || callback.Message == nil {
		return nil
	}

	target := session.Target{ChatID: c.Chat().ID, MessageID: callback.Message.ID}
	s, err := h.sessions.Resolve(target)
	if err != nil || s.Kind != kind {
		_ = c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended", ShowAlert: false})
		return nil
	}
	if s.Owner != sender.ID {
		_ = c.Respond(&tele.CallbackResponse{Text: "❌ Not your game"})
		return nil
	}
	return s
}

// HandleBlackjackAction handles the hit and stand reactions.
func (h *GameHandler) HandleBlackjackAction(c tele.Context, hit bool) error {
	ctx := context.Background()
	s := h.resolveOwned(c, session.KindBlackjack)
	if s == nil {
		return nil
	}
	username := displayName(c.Sender())
	target := session.Target{ChatID: c.Chat().ID, MessageID: c.Callback().Message.ID}

	s.Lock()
	defer s.Unlock()
	if s.Done() {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended"})
	}
	// Resolution happened before the session lock was taken. Re-check the
	// binding under it: a duplicate tap that lost the race finds the session
	// bound to a newer prompt and must not draw a second card.
	if bound, ok := h.sessions.BoundTarget(s); !ok || bound != target {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended"})
	}

	g := s.Game.(*blackjack.Game)
	var outcome blackjack.Outcome
	var err error
	if hit {
		outcome, err = g.Hit()
	} else {
		outcome, err = g.Stand()
	}
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended"})
	}
	s.Touch()

	if !outcome.Terminal() {
		// Every action moves the table to a fresh prompt and rebinds the
		// session to it, so a repeated tap on the old prompt resolves as
		// stale instead of acting on the advanced hand.
		prompt := c.Callback().Message
		fresh, sendErr := c.Bot().Send(c.Chat(), blackjackTableText(username, g, s.Stake), blackjackKeyboard())
		if sendErr != nil {
			// Could not advance the conversation; keep the current prompt
			// live so the hand is not stranded.
			_, _ = c.Bot().Edit(prompt, blackjackTableText(username, g, s.Stake), blackjackKeyboard())
			return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("You drew to %d", g.PlayerValue())})
		}
		next := session.Target{ChatID: c.Chat().ID, MessageID: fresh.ID}
		if err := h.sessions.Rebind(s, target, next); err != nil {
			log.Error().Err(err).Int64("player_id", s.Owner).Msg("blackjack rebind failed")
		}
		// Retract the keyboard from the superseded prompt.
		_, _ = c.Bot().Edit(prompt, blackjackTableText(username, g, s.Stake))
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("You drew to %d", g.PlayerValue())})
	}

	// Terminal: unbind first so a racing reaction sees a stale target,
	// then settle the escrowed stake.
	h.sessions.Remove(s)
	h.settleBlackjack(ctx, s.Owner, s.Stake, outcome)
	balance, _ := h.ledger.Balance(ctx, s.Owner)
	_, _ = c.Bot().Edit(c.Callback().Message, blackjackResultText(username, g, outcome, s.Stake, balance))
	return c.Respond(&tele.CallbackResponse{Text: outcome.String()})
}

// HandleCoinFlipChoice handles the heads and tails reactions.
func (h *GameHandler) HandleCoinFlipChoice(c tele.Context, side coinflip.Side) error {
	ctx := context.Background()
	s := h.resolveOwned(c, session.KindCoinFlip)
	if s == nil {
		return nil
	}
	username := displayName(c.Sender())

	s.Lock()
	defer s.Unlock()
	if s.Done() {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended"})
	}

	g := s.Game.(*coinflip.Game)
	result, err := g.Choose(side)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This game has ended"})
	}

	h.sessions.Remove(s)

	payout := result.Payout(s.Stake)
	if payout > 0 {
		if err := h.ledger.Credit(ctx, s.Owner, payout, model.TxTypeCoinFlip, "coin flip win"); err != nil {
			log.Error().Err(err).Int64("player_id", s.Owner).Msg("coin flip credit failed")
		}
	}

	balance, _ := h.ledger.Balance(ctx, s.Owner)
	var verdict string
	if result.Won {
		verdict = fmt.Sprintf("🎉 You win %d coins!", s.Stake)
	} else {
		verdict = fmt.Sprintf("😢 You lose %d coins.", s.Stake)
	}
	text := fmt.Sprintf(
		"🪙 Coin flip | @%s\n\n"+
			"You called %s, the coin landed %s.\n\n"+
			"%s\n💰 Balance: %d",
		username, result.Chosen, result.Landed, verdict, balance,
	)
	_, _ = c.Bot().Edit(c.Callback().Message, text)
	return c.Respond(&tele.CallbackResponse{Text: verdict})
}

// settleBlackjack credits a finished hand's payout. Losing hands pay
// nothing; the escrowed stake already covers them.
func (h *GameHandler) settleBlackjack(ctx context.Context, playerID, stake int64, outcome blackjack.Outcome) {
	payout := outcome.Payout(stake)
	if payout <= 0 {
		return
	}
	if err := h.ledger.Credit(ctx, playerID, payout, model.TxTypeBlackjack, "blackjack "+outcome.String()); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("blackjack credit failed")
	}
}

func (h *GameHandler) refund(ctx context.Context, playerID, stake int64, reason string) {
	if err := h.ledger.Refund(ctx, playerID, stake, reason); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("stake refund failed")
	}
}
