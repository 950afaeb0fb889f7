// Package blackjack implements the single-player blackjack state machine.
// The machine is pure: escrow, locking and message plumbing live with the
// caller. A game moves from the deal into the player's turn and ends the
// moment an outcome is known; the owning session is removed immediately.
package blackjack

import (
	"errors"
	"fmt"
)

// Game errors.
var (
	// ErrGameOver is returned when a transition is attempted on a settled game.
	ErrGameOver = errors.New("blackjack game already settled")
)

// Outcome is the terminal result of a blackjack game. It is a closed enum;
// call sites switch over it exhaustively rather than matching strings.
type Outcome int

const (
	// OutcomeNone means the game continues.
	OutcomeNone Outcome = iota
	// OutcomeBlackjack is a natural 21 on the initial two cards.
	OutcomeBlackjack
	// OutcomeBust means the player drew past 21. The stake is forfeit.
	OutcomeBust
	// OutcomeDealerBust means the dealer drew past 21.
	OutcomeDealerBust
	// OutcomePlayerWin means the player's total beat the dealer's.
	OutcomePlayerWin
	// OutcomeDealerWin means the dealer's total beat the player's.
	OutcomeDealerWin
	// OutcomePush is a tie; the stake is returned.
	OutcomePush
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomeBust:
		return "bust"
	case OutcomeDealerBust:
		return "dealer_bust"
	case OutcomePlayerWin:
		return "player_win"
	case OutcomeDealerWin:
		return "dealer_win"
	case OutcomePush:
		return "push"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Terminal reports whether the outcome ends the game.
func (o Outcome) Terminal() bool {
	return o != OutcomeNone
}

// Payout returns the ledger credit owed for a terminal outcome given the
// escrowed stake: 2x the stake on any win, the stake back on a push,
// nothing on a loss (the stake was already forfeit at escrow time).
func (o Outcome) Payout(stake int64) int64 {
	switch o {
	case OutcomeBlackjack, OutcomeDealerBust, OutcomePlayerWin:
		return stake * 2
	case OutcomePush:
		return stake
	default:
		return 0
	}
}

// Game holds the cards of one blackjack game. The deck is consumed from
// the end.
type Game struct {
	deck    []Card
	player  []Card
	dealer  []Card
	settled bool
}

// New creates a game with a freshly shuffled 52-card deck and deals the
// opening hands, alternating player first. If the player's initial total
// is 21 the game is settled immediately and the returned outcome is
// OutcomeBlackjack.
func New() (*Game, Outcome) {
	return newFromDeck(newShuffledDeck())
}

// NewFromDeck creates a game drawing from the provided deck (consumed from
// the end). Used by tests to fix the deal.
func NewFromDeck(deck []Card) (*Game, Outcome) {
	return newFromDeck(deck)
}

func newFromDeck(deck []Card) (*Game, Outcome) {
	g := &Game{deck: deck}
	g.player = append(g.player, g.draw())
	g.dealer = append(g.dealer, g.draw())
	g.player = append(g.player, g.draw())
	g.dealer = append(g.dealer, g.draw())

	if HandValue(g.player) == 21 {
		g.settled = true
		return g, OutcomeBlackjack
	}
	return g, OutcomeNone
}

func (g *Game) draw() Card {
	card := g.deck[len(g.deck)-1]
	g.deck = g.deck[:len(g.deck)-1]
	return card
}

// Hit draws one card for the player. It returns OutcomeBust (terminal) if
// the hand exceeds 21, otherwise OutcomeNone and the player's turn
// continues.
func (g *Game) Hit() (Outcome, error) {
	if g.settled {
		return OutcomeNone, ErrGameOver
	}
	g.player = append(g.player, g.draw())
	if HandValue(g.player) > 21 {
		g.settled = true
		return OutcomeBust, nil
	}
	return OutcomeNone, nil
}

// Stand ends the player's turn: the dealer draws while under 17, then the
// totals are compared. The returned outcome is always terminal.
func (g *Game) Stand() (Outcome, error) {
	if g.settled {
		return OutcomeNone, ErrGameOver
	}
	for HandValue(g.dealer) < 17 {
		g.dealer = append(g.dealer, g.draw())
	}
	g.settled = true

	playerValue := HandValue(g.player)
	dealerValue := HandValue(g.dealer)
	switch {
	case dealerValue > 21:
		return OutcomeDealerBust, nil
	case playerValue > dealerValue:
		return OutcomePlayerWin, nil
	case dealerValue > playerValue:
		return OutcomeDealerWin, nil
	default:
		return OutcomePush, nil
	}
}

// Settled reports whether the game has reached a terminal state.
func (g *Game) Settled() bool {
	return g.settled
}

// PlayerHand returns the player's cards.
func (g *Game) PlayerHand() []Card {
	return g.player
}

// DealerHand returns the dealer's cards.
func (g *Game) DealerHand() []Card {
	return g.dealer
}

// PlayerValue returns the current value of the player's hand.
func (g *Game) PlayerValue() int {
	return HandValue(g.player)
}

// DealerValue returns the current value of the dealer's hand.
func (g *Game) DealerValue() int {
	return HandValue(g.dealer)
}

// DealerUpCard renders the dealer's hand with the hole card hidden, as
// shown while the player is still deciding.
func (g *Game) DealerUpCard() string {
	if len(g.dealer) == 0 {
		return ""
	}
	return g.dealer[0].String() + " 🂠"
}
