// Package payout holds the settlement arithmetic shared by roulette rounds
// and betting pools: per-player aggregation of winnings and integer pot
// splitting. Keeping it in one place bounds ledger writes to one credit per
// winning player and makes the rounding policy explicit.
package payout

// Tally accumulates credits per player so that settlement issues a single
// ledger credit per distinct winner instead of one per bet.
type Tally map[int64]int64

// NewTally creates an empty tally.
func NewTally() Tally {
	return make(Tally)
}

// Add records a credit for a player. Zero amounts are dropped so the tally
// only contains players that are actually owed something.
func (t Tally) Add(playerID, amount int64) {
	if amount == 0 {
		return
	}
	t[playerID] += amount
}

// Total returns the sum of all pending credits.
func (t Tally) Total() int64 {
	var total int64
	for _, amount := range t {
		total += amount
	}
	return total
}

// SplitEven divides a pot among winners using integer division. The
// remainder from non-divisibility is retained by the house, never
// redistributed. With no winners the whole pot is retained.
func SplitEven(pot int64, winners int) (share, remainder int64) {
	if winners <= 0 {
		return 0, pot
	}
	share = pot / int64(winners)
	remainder = pot - share*int64(winners)
	return share, remainder
}
