// Package coinflip implements the single-shot coin flip game: the player
// escrows a stake, picks a side once, and the game settles immediately on a
// uniform draw that is independent of the pick.
package coinflip

import (
	"errors"
	"math/rand"
)

// Game errors.
var (
	// ErrAlreadySettled is returned when a choice arrives after the flip.
	ErrAlreadySettled = errors.New("coin flip already settled")
	// ErrInvalidSide is returned for a side outside {heads, tails}.
	ErrInvalidSide = errors.New("invalid coin side")
)

// Side is one face of the coin.
type Side string

const (
	// Heads is the heads face.
	Heads Side = "heads"
	// Tails is the tails face.
	Tails Side = "tails"
)

// Valid reports whether the side is a real coin face.
func (s Side) Valid() bool {
	return s == Heads || s == Tails
}

// Result is the settled outcome of one flip.
type Result struct {
	Chosen Side
	Landed Side
	Won    bool
}

// Payout returns the ledger credit for the result: 2x the stake on a
// match, nothing otherwise (the stake was forfeit at escrow time).
func (r Result) Payout(stake int64) int64 {
	if r.Won {
		return stake * 2
	}
	return 0
}

// Game is a coin flip awaiting the owner's single choice.
type Game struct {
	settled bool
	flip    func() Side
}

// New creates a coin flip with a uniform random draw.
func New() *Game {
	return &Game{flip: randomSide}
}

// NewWithFlip creates a coin flip with a fixed draw function, for tests.
func NewWithFlip(flip func() Side) *Game {
	return &Game{flip: flip}
}

// Choose settles the game on the owner's side pick. Exactly one choice is
// accepted; any later event against the same target is stale.
func (g *Game) Choose(side Side) (Result, error) {
	if g.settled {
		return Result{}, ErrAlreadySettled
	}
	if !side.Valid() {
		return Result{}, ErrInvalidSide
	}
	g.settled = true
	landed := g.flip()
	return Result{
		Chosen: side,
		Landed: landed,
		Won:    side == landed,
	}, nil
}

// Settled reports whether the flip has happened.
func (g *Game) Settled() bool {
	return g.settled
}

func randomSide() Side {
	if rand.Intn(2) == 0 {
		return Heads
	}
	return Tails
}
