package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(rank string) Card {
	return Card{Rank: rank, Suit: "♠️"}
}

// stackDeck builds a deck that deals the given cards in order: player,
// dealer, player, dealer, then any extras. Cards are drawn from the end of
// the slice, so the deal order is reversed here.
func stackDeck(p1, d1, p2, d2 string, extras ...string) []Card {
	deck := make([]Card, 0, 4+len(extras))
	for i := len(extras) - 1; i >= 0; i-- {
		deck = append(deck, card(extras[i]))
	}
	deck = append(deck, card(d2), card(p2), card(d1), card(p1))
	return deck
}

// TestHandValue covers the soft-ace reduction rule.
func TestHandValue(t *testing.T) {
	tests := []struct {
		name     string
		ranks    []string
		expected int
	}{
		{"simple sum", []string{"2", "9"}, 11},
		{"face cards are ten", []string{"K", "Q", "J"}, 30},
		{"ace high", []string{"A", "7"}, 18},
		{"natural blackjack", []string{"A", "K"}, 21},
		{"ace reduces once", []string{"A", "9", "5"}, 15},
		{"two aces one reduced", []string{"A", "A", "9"}, 21},
		{"all aces reduced", []string{"A", "A", "A", "K"}, 13},
		{"no reduction below bust threshold", []string{"K", "Q", "5"}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := make([]Card, len(tt.ranks))
			for i, r := range tt.ranks {
				hand[i] = card(r)
			}
			assert.Equal(t, tt.expected, HandValue(hand))
		})
	}
}

// TestNewDealsAlternating checks the opening deal: two cards each,
// player first, consumed from the end of the deck.
func TestNewDealsAlternating(t *testing.T) {
	g, outcome := NewFromDeck(stackDeck("2", "3", "4", "5"))
	assert.Equal(t, OutcomeNone, outcome)
	assert.Equal(t, []Card{card("2"), card("4")}, g.PlayerHand())
	assert.Equal(t, []Card{card("3"), card("5")}, g.DealerHand())
	assert.False(t, g.Settled())
}

// TestInitialBlackjack checks that a natural 21 settles the game before
// any hit or stand is possible.
func TestInitialBlackjack(t *testing.T) {
	g, outcome := NewFromDeck(stackDeck("A", "5", "K", "9"))
	assert.Equal(t, OutcomeBlackjack, outcome)
	assert.True(t, g.Settled())

	_, err := g.Hit()
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = g.Stand()
	assert.ErrorIs(t, err, ErrGameOver)
}

// TestHitBust checks that drawing past 21 is terminal with no payout.
func TestHitBust(t *testing.T) {
	g, outcome := NewFromDeck(stackDeck("K", "5", "9", "9", "5"))
	require.Equal(t, OutcomeNone, outcome)

	out, err := g.Hit()
	require.NoError(t, err)
	assert.Equal(t, OutcomeBust, out)
	assert.True(t, g.Settled())
	assert.Greater(t, g.PlayerValue(), 21)
	assert.Equal(t, int64(0), out.Payout(100))
}

// TestHitContinues checks that a safe hit keeps the player's turn open.
func TestHitContinues(t *testing.T) {
	g, outcome := NewFromDeck(stackDeck("2", "5", "3", "9", "4"))
	require.Equal(t, OutcomeNone, outcome)

	out, err := g.Hit()
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, out)
	assert.False(t, g.Settled())
	assert.Equal(t, 9, g.PlayerValue())
}

// TestStandDealerDrawsToSeventeen checks that the dealer keeps drawing
// while under 17 and then stops.
func TestStandDealerDrawsToSeventeen(t *testing.T) {
	// Dealer starts at 5+9=14, draws a 3 to reach 17 and stops.
	g, _ := NewFromDeck(stackDeck("K", "5", "9", "9", "3"))
	out, err := g.Stand()
	require.NoError(t, err)
	assert.Equal(t, 17, g.DealerValue())
	assert.Equal(t, OutcomePlayerWin, out)
	assert.Equal(t, int64(200), out.Payout(100))
}

// TestStandOutcomes covers the comparison matrix after the dealer's turn.
func TestStandOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		deck    []Card
		outcome Outcome
		payout  int64
	}{
		{
			// Player 20, dealer 10+9 draws K and busts.
			"dealer bust",
			stackDeck("K", "10", "Q", "6", "K"),
			OutcomeDealerBust,
			200,
		},
		{
			// Player 20 beats dealer 19.
			"player win",
			stackDeck("K", "10", "Q", "9"),
			OutcomePlayerWin,
			200,
		},
		{
			// Dealer 20 beats player 19.
			"dealer win",
			stackDeck("K", "10", "9", "Q"),
			OutcomeDealerWin,
			0,
		},
		{
			// Both 19: push refunds the stake.
			"push",
			stackDeck("K", "10", "9", "9"),
			OutcomePush,
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, outcome := NewFromDeck(tt.deck)
			require.Equal(t, OutcomeNone, outcome)

			out, err := g.Stand()
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, out)
			assert.True(t, out.Terminal())
			assert.Equal(t, tt.payout, out.Payout(100))
		})
	}
}

// TestShuffledDeckComplete checks that a fresh deck holds 52 unique cards.
func TestShuffledDeckComplete(t *testing.T) {
	deck := newShuffledDeck()
	require.Len(t, deck, 52)

	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}
