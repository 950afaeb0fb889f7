package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-casino-bot/internal/model"
)

func participant(player int64, choice string, paid int64) model.EventParticipant {
	return model.EventParticipant{PlayerID: player, Choice: choice, PaidAmount: paid}
}

// TestSettleSplitsPotAmongWinners checks the documented rounding policy:
// pot 100 with three winners pays 33 each, the leftover 1 is retained.
func TestSettleSplitsPotAmongWinners(t *testing.T) {
	participants := []model.EventParticipant{
		participant(1, ChoiceRed, 25),
		participant(2, ChoiceRed, 25),
		participant(3, ChoiceRed, 25),
		participant(4, ChoiceBlue, 25),
	}

	s, err := Settle(participants, ChoiceRed)
	require.NoError(t, err)

	assert.Equal(t, int64(100), s.Pot)
	assert.ElementsMatch(t, []int64{1, 2, 3}, s.Winners)
	assert.Equal(t, int64(33), s.Share)
	assert.Equal(t, int64(1), s.Remainder)

	credits := s.Credits()
	assert.Len(t, credits, 3)
	for _, winner := range s.Winners {
		assert.Equal(t, int64(33), credits[winner])
	}
}

// TestSettleNoWinnersForfeitsPot checks the house-keeps-unclaimed-pot
// policy: nobody picked the winning side, so no credits are issued.
func TestSettleNoWinnersForfeitsPot(t *testing.T) {
	participants := []model.EventParticipant{
		participant(1, ChoiceRed, 50),
		participant(2, ChoiceRed, 50),
	}

	s, err := Settle(participants, ChoiceBlue)
	require.NoError(t, err)

	assert.Equal(t, int64(100), s.Pot)
	assert.Empty(t, s.Winners)
	assert.Equal(t, int64(0), s.Share)
	assert.Equal(t, int64(100), s.Remainder)
	assert.Empty(t, s.Credits())
}

// TestSettleEmptyPool checks that an empty pool settles cleanly.
func TestSettleEmptyPool(t *testing.T) {
	s, err := Settle(nil, ChoiceRed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Pot)
	assert.Empty(t, s.Winners)
}

// TestSettleRejectsUnknownChoice checks the choice validation.
func TestSettleRejectsUnknownChoice(t *testing.T) {
	_, err := Settle(nil, "green")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

// TestSettleConservation checks that credits issued plus the retained
// remainder always equal the escrowed pot.
func TestSettleConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numParticipants := rapid.IntRange(0, 50).Draw(t, "participants")
		betCost := rapid.Int64Range(1, 10000).Draw(t, "betCost")

		participants := make([]model.EventParticipant, numParticipants)
		for i := range participants {
			choice := ChoiceRed
			if rapid.Bool().Draw(t, "blue") {
				choice = ChoiceBlue
			}
			participants[i] = participant(int64(i+1), choice, betCost)
		}

		winning := ChoiceRed
		if rapid.Bool().Draw(t, "blueWins") {
			winning = ChoiceBlue
		}

		s, err := Settle(participants, winning)
		if err != nil {
			t.Fatalf("settle: %v", err)
		}

		escrowed := betCost * int64(numParticipants)
		if s.Pot != escrowed {
			t.Fatalf("pot %d, escrowed %d", s.Pot, escrowed)
		}
		if s.Credits().Total()+s.Remainder != escrowed {
			t.Fatalf("conservation violated: credits %d + remainder %d != %d",
				s.Credits().Total(), s.Remainder, escrowed)
		}
		for _, p := range participants {
			if p.Choice == winning {
				if s.Credits()[p.PlayerID] != s.Share {
					t.Fatalf("winner %d credited %d, want %d", p.PlayerID, s.Credits()[p.PlayerID], s.Share)
				}
			} else if _, ok := s.Credits()[p.PlayerID]; ok {
				t.Fatalf("loser %d received a credit", p.PlayerID)
			}
		}
	})
}
