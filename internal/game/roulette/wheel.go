package roulette

import "math/rand"

// Colors on the wheel.
const (
	ColorGreen = "green"
	ColorRed   = "red"
	ColorBlack = "black"
)

// redNumbers is the canonical European wheel color table. Every non-zero
// number not listed here is black; zero is green.
var redNumbers = map[int]struct{}{
	1: {}, 3: {}, 5: {}, 7: {}, 9: {}, 12: {}, 14: {}, 16: {}, 18: {},
	19: {}, 21: {}, 23: {}, 25: {}, 27: {}, 30: {}, 32: {}, 34: {}, 36: {},
}

// ColorOf returns the wheel color of a number. Zero is green and matches
// neither red nor black bets.
func ColorOf(n int) string {
	if n == 0 {
		return ColorGreen
	}
	if _, ok := redNumbers[n]; ok {
		return ColorRed
	}
	return ColorBlack
}

// spinWheel draws a uniformly random pocket in [0, 36].
func spinWheel() int {
	return rand.Intn(37)
}
