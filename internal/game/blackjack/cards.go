package blackjack

import (
	"math/rand"
	"strings"
)

// Card is a single playing card. Suit never affects the hand value.
type Card struct {
	Rank string
	Suit string
}

// String returns the display form of a card, e.g. "A♠️".
func (c Card) String() string {
	return c.Rank + c.Suit
}

// Value returns the card's blackjack value. Aces count as 11 here; the
// soft-ace reduction happens in HandValue.
func (c Card) Value() int {
	switch c.Rank {
	case "J", "Q", "K":
		return 10
	case "A":
		return 11
	default:
		return rankValues[c.Rank]
	}
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
}

var (
	ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
	suits = []string{"♠️", "♥️", "♦️", "♣️"}
)

// newShuffledDeck returns all 52 unique cards in random order. Cards are
// drawn from the end of the slice.
func newShuffledDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range suits {
		for _, rank := range ranks {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// HandValue computes the best blackjack value of a hand: face cards count
// 10, aces count 11 and are reduced to 1 one at a time while the total
// exceeds 21.
func HandValue(hand []Card) int {
	value := 0
	aces := 0
	for _, c := range hand {
		v := c.Value()
		if c.IsAce() {
			aces++
		}
		value += v
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value
}

// FormatHand renders a hand for display, e.g. "K♠️ 7♥️".
func FormatHand(hand []Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
