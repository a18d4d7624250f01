// Package guess implements the "guess the die roll" game: the player names
// a face of a six-sided die and wins ten times the stake on a match.
package guess

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"cx-arcade-bot/internal/game"
)

const (
	// MinFace and MaxFace bound both the pick and the roll.
	MinFace = 1
	MaxFace = 6

	// Multiplier is the winnings on a match, on top of the returned stake.
	Multiplier = 10
)

// Errors for the guess game
var (
	ErrInvalidBet     = errors.New("bet amount must be positive")
	ErrBetTooLarge    = errors.New("bet amount too large")
	ErrInvalidPick    = errors.New("pick must be between 1 and 6")
	ErrPickNotANumber = errors.New("pick is not a number")
)

// ValidateBet checks that a stake is positive and its payout fits in int64.
func ValidateBet(bet int64) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	if bet > math.MaxInt64/(Multiplier+1) {
		return fmt.Errorf("%w: max is %d", ErrBetTooLarge, int64(math.MaxInt64/(Multiplier+1)))
	}
	return nil
}

// ParsePick parses the guessed face from a command argument.
func ParsePick(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, ErrPickNotANumber
	}
	if err := ValidatePick(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidatePick checks that the guessed face exists on the die.
func ValidatePick(pick int) error {
	if pick < MinFace || pick > MaxFace {
		return ErrInvalidPick
	}
	return nil
}

// Roll draws a die face uniformly from [1, 6].
func Roll(src game.Source) int {
	return game.IntRange(src, MinFace, MaxFace)
}

// Winnings is the amount announced to the player on a match.
func Winnings(bet int64) int64 {
	return bet * Multiplier
}

// Credit is what gets added back to an already debited balance on a match:
// the winnings plus the returned stake.
func Credit(bet int64) int64 {
	return bet*Multiplier + bet
}

// MaxGain is the largest balance increase a round with this stake can
// produce, measured from the balance before the stake was debited.
func MaxGain(bet int64) int64 {
	return Winnings(bet)
}

// Settle returns the final balance given the balance after the stake was
// debited, and whether the pick matched the roll.
func Settle(debited, bet int64, pick, roll int) (int64, bool) {
	if pick == roll {
		return debited + Credit(bet), true
	}
	return debited, false
}
