// Package pool implements settlement for multi-party betting pools: every
// participant pays a fixed entry fee into a shared pot, and when an admin
// ends the pool the pot is split evenly among those who picked the winning
// side. Pool membership itself is persisted; this package holds the pure
// rules.
package pool

import (
	"errors"

	"telegram-casino-bot/internal/game/payout"
	"telegram-casino-bot/internal/model"
)

// Pool errors.
var (
	// ErrInvalidChoice is returned for a side outside {red, blue}.
	ErrInvalidChoice = errors.New("invalid pool choice")
)

// The two sides of a pool.
const (
	ChoiceRed  = "red"
	ChoiceBlue = "blue"
)

// ValidChoice reports whether the choice names a real side.
func ValidChoice(choice string) bool {
	return choice == ChoiceRed || choice == ChoiceBlue
}

// Settlement is the computed payout of an ended pool.
type Settlement struct {
	Pot           int64
	WinningChoice string
	Winners       []int64
	Share         int64
	// Remainder is retained by the house: the whole pot when nobody
	// picked the winning side, otherwise the integer-division leftover.
	Remainder int64
}

// Settle computes the payout for a pool given its participants and the
// winning choice. Each winner receives floor(pot / winners); the remainder
// is never redistributed. An empty winner set forfeits the entire pot.
func Settle(participants []model.EventParticipant, winningChoice string) (Settlement, error) {
	if !ValidChoice(winningChoice) {
		return Settlement{}, ErrInvalidChoice
	}

	s := Settlement{WinningChoice: winningChoice}
	for _, p := range participants {
		s.Pot += p.PaidAmount
		if p.Choice == winningChoice {
			s.Winners = append(s.Winners, p.PlayerID)
		}
	}

	s.Share, s.Remainder = payout.SplitEven(s.Pot, len(s.Winners))
	return s, nil
}

// Credits returns the per-player ledger credits of a settlement.
func (s Settlement) Credits() payout.Tally {
	tally := payout.NewTally()
	for _, winner := range s.Winners {
		tally.Add(winner, s.Share)
	}
	return tally
}
