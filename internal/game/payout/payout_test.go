package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestSplitEven covers the documented rounding policy: integer shares,
// remainder retained, empty winner set forfeits the pot.
func TestSplitEven(t *testing.T) {
	tests := []struct {
		name      string
		pot       int64
		winners   int
		share     int64
		remainder int64
	}{
		{"even split", 100, 4, 25, 0},
		{"pot 100 three winners", 100, 3, 33, 1},
		{"single winner takes all", 100, 1, 100, 0},
		{"no winners forfeits pot", 100, 0, 0, 100},
		{"pot smaller than winner count", 2, 3, 0, 2},
		{"zero pot", 0, 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, remainder := SplitEven(tt.pot, tt.winners)
			assert.Equal(t, tt.share, share)
			assert.Equal(t, tt.remainder, remainder)
		})
	}
}

// TestSplitEvenConservation checks that no currency is created or
// destroyed by a split: shares plus the house remainder always equal the
// pot.
func TestSplitEvenConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pot := rapid.Int64Range(0, 1_000_000).Draw(t, "pot")
		winners := rapid.IntRange(0, 500).Draw(t, "winners")

		share, remainder := SplitEven(pot, winners)

		if share < 0 || remainder < 0 {
			t.Fatalf("negative result: share=%d remainder=%d", share, remainder)
		}
		if share*int64(winners)+remainder != pot {
			t.Fatalf("conservation violated: %d*%d+%d != %d", share, winners, remainder, pot)
		}
		if winners > 0 && remainder >= int64(winners) {
			t.Fatalf("remainder %d not minimal for %d winners", remainder, winners)
		}
	})
}

// TestTallyAggregates checks that repeated credits collapse into one entry
// per player and zero credits are dropped.
func TestTallyAggregates(t *testing.T) {
	tally := NewTally()
	tally.Add(1, 100)
	tally.Add(2, 50)
	tally.Add(1, 70)
	tally.Add(3, 0)

	assert.Len(t, tally, 2)
	assert.Equal(t, int64(170), tally[1])
	assert.Equal(t, int64(50), tally[2])
	assert.Equal(t, int64(220), tally.Total())
}
