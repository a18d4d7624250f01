// Package model defines the data models for the arcade bot.
package model

import "time"

// CreatorInternalID is the internal id reserved for the creator account.
const CreatorInternalID int64 = 0

// Role is the access level of an account.
type Role string

// Account roles.
const (
	RolePlayer  Role = "player"
	RoleCreator Role = "creator"
)

// Account represents a Telegram user's record in the arcade.
type Account struct {
	InternalID  int64   `db:"internal_id"`
	ExternalID  int64   `db:"external_id"`
	DisplayName *string `db:"display_name"`
	Balance     int64   `db:"balance"`
	LastGameAt  int64   `db:"last_game_at"`
	Role        Role    `db:"role"`
	CreatedAt   int64   `db:"created_at"`
}

// IsCreator reports whether the account holds the creator role.
func (a *Account) IsCreator() bool {
	return a.Role == RoleCreator
}

// Name returns the display name or an empty string when absent.
func (a *Account) Name() string {
	if a.DisplayName == nil {
		return ""
	}
	return *a.DisplayName
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	if a.DisplayName != nil {
		name := *a.DisplayName
		c.DisplayName = &name
	}
	return &c
}

// Stats aggregates balances over player accounts (creator excluded).
type Stats struct {
	PlayerCount  int64
	TotalBalance int64
	MaxBalance   int64
	Richest      *Account // nil when there are no players
}

// Game names recorded in the wager log.
const (
	GameGuess  = "guess"
	GameCasino = "casino"
)

// WagerStatus is the settlement state of a wager log entry.
type WagerStatus string

// Wager statuses.
const (
	WagerPending WagerStatus = "pending"
	WagerSettled WagerStatus = "settled"
)

// Wager is the intent/settlement record of one played round.
// It is written as pending before the first balance mutation and
// settled after the last one.
type Wager struct {
	ID           string      `db:"id"`
	ExternalID   int64       `db:"external_id"`
	Game         string      `db:"game"`
	Amount       int64       `db:"amount"`
	Pick         int         `db:"pick"`
	Status       WagerStatus `db:"status"`
	Outcome      int         `db:"outcome"`
	Won          bool        `db:"won"`
	Delta        int64       `db:"delta"`
	BalanceAfter int64       `db:"balance_after"`
	CreatedAt    time.Time   `db:"created_at"`
	SettledAt    *time.Time  `db:"settled_at"`
}

// Settlement carries the result written when a wager is settled.
type Settlement struct {
	Outcome      int
	Won          bool
	Delta        int64
	BalanceAfter int64
}

// Tier is a player level derived from balance.
type Tier string

// Tiers, highest first.
const (
	TierWhale       Tier = "whale"
	TierMillionaire Tier = "millionaire"
	TierPlayer      Tier = "player"
	TierHobo        Tier = "hobo"
	TierNone        Tier = ""
)

// TierFor returns the tier for a balance. Balances below 1,000 have no tier.
func TierFor(balance int64) Tier {
	switch {
	case balance >= 1_000_000:
		return TierWhale
	case balance >= 100_000:
		return TierMillionaire
	case balance >= 10_000:
		return TierPlayer
	case balance >= 1_000:
		return TierHobo
	default:
		return TierNone
	}
}
