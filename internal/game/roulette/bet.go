package roulette

import (
	"errors"
	"fmt"
	"strconv"
)

// Bet validation errors.
var (
	// ErrInvalidBet is returned for a kind/value outside the catalogue.
	ErrInvalidBet = errors.New("invalid bet kind or value")
	// ErrInvalidAmount is returned for a non-positive bet amount.
	ErrInvalidAmount = errors.New("bet amount must be positive")
)

// BetKind identifies a family of roulette bets.
type BetKind string

// The fixed bet catalogue.
const (
	KindColor  BetKind = "color"  // red / black
	KindParity BetKind = "parity" // even / odd
	KindHalf   BetKind = "half"   // low 1-18 / high 19-36
	KindNumber BetKind = "number" // single number 0-36
	KindDozen  BetKind = "dozen"  // 1 / 2 / 3
	KindColumn BetKind = "column" // 1 / 2 / 3
)

// Half and parity values.
const (
	ValueLow  = "low"
	ValueHigh = "high"
	ValueEven = "even"
	ValueOdd  = "odd"
)

// Bet is a single wager inside a round. A player may hold several.
type Bet struct {
	PlayerID int64
	Amount   int64
	Kind     BetKind
	Value    string
}

// ParseBetSpec resolves the kind/value arguments of a structured bet
// command. Even-money bets name their value directly ("red", "odd",
// "high"); number, dozen and column take an explicit value argument.
func ParseBetSpec(kindArg, valueArg string) (BetKind, string, error) {
	switch kindArg {
	case ColorRed, ColorBlack:
		return KindColor, kindArg, nil
	case ValueEven, ValueOdd:
		return KindParity, kindArg, nil
	case ValueLow, "1-18":
		return KindHalf, ValueLow, nil
	case ValueHigh, "19-36":
		return KindHalf, ValueHigh, nil
	case string(KindNumber), string(KindDozen), string(KindColumn):
		kind := BetKind(kindArg)
		if !ValidateBet(kind, valueArg) {
			return "", "", ErrInvalidBet
		}
		return kind, valueArg, nil
	default:
		return "", "", ErrInvalidBet
	}
}

// ValidateBet reports whether kind/value is inside the fixed catalogue.
func ValidateBet(kind BetKind, value string) bool {
	switch kind {
	case KindColor:
		return value == ColorRed || value == ColorBlack
	case KindParity:
		return value == ValueEven || value == ValueOdd
	case KindHalf:
		return value == ValueLow || value == ValueHigh
	case KindNumber:
		n, err := strconv.Atoi(value)
		return err == nil && n >= 0 && n <= 36
	case KindDozen, KindColumn:
		n, err := strconv.Atoi(value)
		return err == nil && n >= 1 && n <= 3
	default:
		return false
	}
}

// Wins reports whether the bet matches the drawn number. Zero is green:
// it matches only a straight bet on 0, never color, parity, half, dozen
// or column bets.
func (b Bet) Wins(drawn int) bool {
	switch b.Kind {
	case KindColor:
		return ColorOf(drawn) == b.Value
	case KindParity:
		if drawn == 0 {
			return false
		}
		if drawn%2 == 0 {
			return b.Value == ValueEven
		}
		return b.Value == ValueOdd
	case KindHalf:
		if drawn == 0 {
			return false
		}
		if drawn <= 18 {
			return b.Value == ValueLow
		}
		return b.Value == ValueHigh
	case KindNumber:
		n, _ := strconv.Atoi(b.Value)
		return drawn == n
	case KindDozen:
		if drawn == 0 {
			return false
		}
		n, _ := strconv.Atoi(b.Value)
		return (drawn-1)/12+1 == n
	case KindColumn:
		if drawn == 0 {
			return false
		}
		n, _ := strconv.Atoi(b.Value)
		col := drawn % 3
		if col == 0 {
			col = 3
		}
		return col == n
	default:
		return false
	}
}

// Multiplier returns the winnings multiplier for the bet kind: 35 for a
// straight number, 2 for dozen/column, 1 for the even-money bets.
func (b Bet) Multiplier() int64 {
	switch b.Kind {
	case KindNumber:
		return 35
	case KindDozen, KindColumn:
		return 2
	default:
		return 1
	}
}

// WinCredit returns the total ledger credit for a winning bet: the
// escrowed amount back plus amount times the multiplier.
func (b Bet) WinCredit() int64 {
	return b.Amount + b.Amount*b.Multiplier()
}

// Label renders the bet for display, e.g. "100 on red" or "50 on dozen 2".
func (b Bet) Label() string {
	switch b.Kind {
	case KindColor, KindParity, KindHalf:
		return fmt.Sprintf("%d on %s", b.Amount, b.Value)
	default:
		return fmt.Sprintf("%d on %s %s", b.Amount, b.Kind, b.Value)
	}
}
