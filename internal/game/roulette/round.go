// Package roulette implements the multi-phase roulette round: one round at
// a time per chat, an open betting phase fed by both the structured bet
// command and quick-bet reactions, an admin-triggered spin, and a
// settlement that aggregates winnings per player.
package roulette

import (
	"errors"

	"github.com/google/uuid"

	"telegram-casino-bot/internal/game/payout"
)

// Round errors.
var (
	// ErrBettingClosed is returned for a bet outside the betting phase.
	ErrBettingClosed = errors.New("betting phase has ended")
	// ErrNotBetting is returned for a spin outside the betting phase.
	ErrNotBetting = errors.New("round is not accepting a spin")
	// ErrNotSpun is returned for a settlement before the wheel was spun.
	ErrNotSpun = errors.New("round has not been spun")
	// ErrQuickBetUsed is returned when a player repeats a quick color bet.
	ErrQuickBetUsed = errors.New("quick bet already placed this round")
)

// Phase is the lifecycle stage of a round.
type Phase int

const (
	// PhaseBetting accepts bets.
	PhaseBetting Phase = iota
	// PhaseSpinning has a drawn number and awaits settlement.
	PhaseSpinning
	// PhaseSettled is terminal.
	PhaseSettled
)

// Round is one roulette round scoped to a chat. All mutation is expected
// to happen under the round's session lock; the machine itself is not
// concurrent.
type Round struct {
	ID     string
	ChatID int64

	phase     Phase
	bets      []Bet
	quickBets map[int64]bool
	drawn     int
}

// NewRound opens a round in the betting phase with a collision-resistant
// identifier.
func NewRound(chatID int64) *Round {
	return &Round{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		phase:     PhaseBetting,
		quickBets: make(map[int64]bool),
	}
}

// Phase returns the round's current phase.
func (r *Round) Phase() Phase {
	return r.phase
}

// CheckBet reports whether a bet would be accepted right now, recording
// nothing. Callers run it before escrowing the stake so a rejected bet
// never moves money.
func (r *Round) CheckBet(playerID, amount int64, kind BetKind, value string, quick bool) error {
	if r.phase != PhaseBetting {
		return ErrBettingClosed
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !ValidateBet(kind, value) {
		return ErrInvalidBet
	}
	if quick {
		if kind != KindColor {
			return ErrInvalidBet
		}
		if r.quickBets[playerID] {
			return ErrQuickBetUsed
		}
	}
	return nil
}

// PlaceBet validates and records a bet. The same intake path serves the
// structured command and the quick-bet reaction; the reaction path is
// limited to one color bet per player per round.
func (r *Round) PlaceBet(playerID, amount int64, kind BetKind, value string, quick bool) error {
	if err := r.CheckBet(playerID, amount, kind, value, quick); err != nil {
		return err
	}
	if quick {
		r.quickBets[playerID] = true
	}
	r.bets = append(r.bets, Bet{
		PlayerID: playerID,
		Amount:   amount,
		Kind:     kind,
		Value:    value,
	})
	return nil
}

// Spin closes betting and draws the winning number.
func (r *Round) Spin() (int, error) {
	return r.spin(spinWheel())
}

// SpinWith closes betting with a fixed number, for tests.
func (r *Round) SpinWith(n int) (int, error) {
	return r.spin(n)
}

func (r *Round) spin(n int) (int, error) {
	if r.phase != PhaseBetting {
		return 0, ErrNotBetting
	}
	r.phase = PhaseSpinning
	r.drawn = n
	return n, nil
}

// Settle resolves every bet against the drawn number and returns the
// aggregated winnings per player: one credit per distinct winner.
// The round is terminal afterwards.
func (r *Round) Settle() (payout.Tally, error) {
	if r.phase != PhaseSpinning {
		return nil, ErrNotSpun
	}
	r.phase = PhaseSettled

	tally := payout.NewTally()
	for _, bet := range r.bets {
		if bet.Wins(r.drawn) {
			tally.Add(bet.PlayerID, bet.WinCredit())
		}
	}
	return tally, nil
}

// Drawn returns the winning number. Only meaningful after Spin.
func (r *Round) Drawn() int {
	return r.drawn
}

// Bets returns all recorded bets.
func (r *Round) Bets() []Bet {
	return r.bets
}

// BetsFor returns a player's bets in placement order.
func (r *Round) BetsFor(playerID int64) []Bet {
	var out []Bet
	for _, b := range r.bets {
		if b.PlayerID == playerID {
			out = append(out, b)
		}
	}
	return out
}

// TotalStaked returns the sum escrowed into the round.
func (r *Round) TotalStaked() int64 {
	var total int64
	for _, b := range r.bets {
		total += b.Amount
	}
	return total
}

// PlayerCount returns the number of distinct bettors.
func (r *Round) PlayerCount() int {
	seen := make(map[int64]struct{})
	for _, b := range r.bets {
		seen[b.PlayerID] = struct{}{}
	}
	return len(seen)
}
