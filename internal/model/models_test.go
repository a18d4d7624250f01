package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		balance int64
		want    Tier
	}{
		{-50, TierNone},
		{0, TierNone},
		{999, TierNone},
		{1_000, TierHobo},
		{9_999, TierHobo},
		{10_000, TierPlayer},
		{99_999, TierPlayer},
		{100_000, TierMillionaire},
		{999_999, TierMillionaire},
		{1_000_000, TierWhale},
		{50_000_000, TierWhale},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.balance), "balance %d", tt.balance)
	}
}

func TestAccountClone(t *testing.T) {
	name := "alice"
	a := &Account{InternalID: 3, ExternalID: 42, DisplayName: &name, Balance: 10}

	c := a.Clone()
	*c.DisplayName = "bob"
	c.Balance = 99

	assert.Equal(t, "alice", a.Name())
	assert.Equal(t, int64(10), a.Balance)
	assert.Equal(t, "", (&Account{}).Name())
}
