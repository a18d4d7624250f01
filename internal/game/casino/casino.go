// Package casino implements the multiplier game: a random multiplier in
// [2, 10] is drawn, then a fair coin decides whether the player gains
// stake*(multiplier-1) or loses the stake.
package casino

import (
	"errors"
	"fmt"
	"math"

	"cx-arcade-bot/internal/game"
)

const (
	MinMultiplier = 2
	MaxMultiplier = 10

	// WinThreshold is compared against Float64(); draws at or above it win.
	WinThreshold = 0.5
)

// Errors for the casino game
var (
	ErrInvalidBet  = errors.New("bet amount must be positive")
	ErrBetTooLarge = errors.New("bet amount too large")
)

// ValidateBet checks that a stake is positive and its payout fits in int64.
func ValidateBet(bet int64) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	if bet > math.MaxInt64/MaxMultiplier {
		return fmt.Errorf("%w: max is %d", ErrBetTooLarge, int64(math.MaxInt64/MaxMultiplier))
	}
	return nil
}

// DrawMultiplier draws the round's multiplier uniformly from [2, 10].
func DrawMultiplier(src game.Source) int {
	return game.IntRange(src, MinMultiplier, MaxMultiplier)
}

// DrawWin flips the round's coin.
func DrawWin(src game.Source) bool {
	return src.Float64() >= WinThreshold
}

// Gross is the total announced on a win (stake included).
func Gross(bet int64, multiplier int) int64 {
	return bet * int64(multiplier)
}

// MaxGain is the largest balance increase a round with this stake can
// produce.
func MaxGain(bet int64) int64 {
	return bet * (MaxMultiplier - 1)
}

// Delta returns the net balance change of a round. The stake is not
// debited up front, so a win adds stake*(multiplier-1) and a loss subtracts
// the stake.
func Delta(bet int64, multiplier int, won bool) int64 {
	if won {
		return bet * int64(multiplier-1)
	}
	return -bet
}
