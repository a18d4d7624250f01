package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"cx-arcade-bot/internal/model"
	"cx-arcade-bot/internal/repository"
)

// TestTopProperty checks that the leaderboard holds at most the limit,
// never contains the creator and is ordered by non-increasing balance.
func TestTopProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := repository.NewMemoryAccountRepository()
		svc := NewRankingService(repo)
		ctx := context.Background()

		creatorBalance := rapid.Int64Range(0, 1<<50).Draw(t, "creatorBalance")
		if _, err := repo.Create(ctx, &model.Account{ExternalID: testCreatorID, Role: model.RoleCreator, Balance: creatorBalance}); err != nil {
			t.Fatal(err)
		}

		balances := rapid.SliceOfN(rapid.Int64Range(0, 10_000_000), 0, 25).Draw(t, "balances")
		for i, b := range balances {
			if _, err := repo.Create(ctx, &model.Account{ExternalID: int64(i + 1), Role: model.RolePlayer, Balance: b}); err != nil {
				t.Fatal(err)
			}
		}

		top, err := svc.Top(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(top) > 5 || len(top) != min(5, len(balances)) {
			t.Fatalf("unexpected leaderboard size %d", len(top))
		}
		for i, a := range top {
			if a.IsCreator() || a.InternalID == model.CreatorInternalID {
				t.Fatal("creator listed in leaderboard")
			}
			if i > 0 && top[i-1].Balance < a.Balance {
				t.Fatalf("leaderboard out of order at %d", i)
			}
		}
	})
}

func TestStats(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	svc := NewRankingService(repo)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Account{ExternalID: testCreatorID, Role: model.RoleCreator, Balance: 99_000_000})
	require.NoError(t, err)
	for i, b := range []int64{10000, 250000, 3000} {
		_, err := repo.Create(ctx, &model.Account{ExternalID: int64(i + 1), Role: model.RolePlayer, Balance: b})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.PlayerCount)
	assert.Equal(t, int64(263000), stats.TotalBalance)
	assert.Equal(t, int64(250000), stats.MaxBalance)
	require.NotNil(t, stats.Richest)
	assert.Equal(t, int64(2), stats.Richest.ExternalID)
}
