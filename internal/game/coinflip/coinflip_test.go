package coinflip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestChooseWinAndLoss checks the payout for both directions of the draw.
func TestChooseWinAndLoss(t *testing.T) {
	tests := []struct {
		name   string
		chosen Side
		landed Side
		won    bool
		payout int64
	}{
		{"heads match", Heads, Heads, true, 200},
		{"tails match", Tails, Tails, true, 200},
		{"heads mismatch", Heads, Tails, false, 0},
		{"tails mismatch", Tails, Heads, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithFlip(func() Side { return tt.landed })
			result, err := g.Choose(tt.chosen)
			require.NoError(t, err)
			assert.Equal(t, tt.won, result.Won)
			assert.Equal(t, tt.payout, result.Payout(100))
			assert.True(t, g.Settled())
		})
	}
}

// TestSingleTransition checks that only the first choice is accepted.
func TestSingleTransition(t *testing.T) {
	g := NewWithFlip(func() Side { return Heads })

	_, err := g.Choose(Heads)
	require.NoError(t, err)

	_, err = g.Choose(Tails)
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

// TestInvalidSideRejected checks that a bad side leaves the game open.
func TestInvalidSideRejected(t *testing.T) {
	g := New()
	_, err := g.Choose(Side("edge"))
	assert.ErrorIs(t, err, ErrInvalidSide)
	assert.False(t, g.Settled())
}

// TestExactlyOneOutcome checks that every settled flip is exactly a win or
// a loss, and a win always pays twice the stake.
func TestExactlyOneOutcome(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 100000).Draw(t, "stake")
		chosen := Heads
		if rapid.Bool().Draw(t, "chooseTails") {
			chosen = Tails
		}

		g := New()
		result, err := g.Choose(chosen)
		if err != nil {
			t.Fatalf("choose failed: %v", err)
		}

		if result.Won {
			if result.Payout(stake) != stake*2 {
				t.Fatalf("win payout %d, want %d", result.Payout(stake), stake*2)
			}
			if result.Chosen != result.Landed {
				t.Fatalf("won but %s != %s", result.Chosen, result.Landed)
			}
		} else {
			if result.Payout(stake) != 0 {
				t.Fatalf("loss payout %d, want 0", result.Payout(stake))
			}
			if result.Chosen == result.Landed {
				t.Fatalf("lost but %s == %s", result.Chosen, result.Landed)
			}
		}
	})
}
