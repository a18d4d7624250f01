package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"cx-arcade-bot/internal/model"
	"cx-arcade-bot/internal/repository"
)

const testCreatorID = 8258660794

func newAccountService() (*AccountService, *repository.MemoryAccountRepository) {
	repo := repository.NewMemoryAccountRepository()
	svc := NewAccountService(repo, AccountConfig{
		CreatorID:     testCreatorID,
		CreatorHandle: "@cxpyuser",
		StartBalance:  10000,
		BonusAmount:   1_000_000,
	})
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestEnsureAccount_CreatesOnce(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	acct, created, err := svc.EnsureAccount(ctx, 100, strPtr("alice"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), acct.InternalID)
	assert.Equal(t, int64(10000), acct.Balance)
	assert.Equal(t, model.RolePlayer, acct.Role)
	assert.Equal(t, int64(1700000000), acct.CreatedAt)

	svc.now = func() time.Time { return time.Unix(1800000000, 0) }
	again, created, err := svc.EnsureAccount(ctx, 100, strPtr("alice"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, acct.InternalID, again.InternalID)
	assert.Equal(t, acct.Balance, again.Balance)
	assert.Equal(t, acct.CreatedAt, again.CreatedAt)
}

func TestEnsureAccount_RefreshesDisplayName(t *testing.T) {
	svc, repo := newAccountService()
	ctx := context.Background()

	_, _, err := svc.EnsureAccount(ctx, 100, nil)
	require.NoError(t, err)

	acct, _, err := svc.EnsureAccount(ctx, 100, strPtr("renamed"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", acct.Name())

	stored, err := repo.GetByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name())

	// a missing username never wipes the stored one
	acct, _, err = svc.EnsureAccount(ctx, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, "renamed", acct.Name())
}

func TestEnsureAccount_CreatorGetsSlotZero(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	acct, created, err := svc.EnsureAccount(ctx, testCreatorID, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.CreatorInternalID, acct.InternalID)
	assert.True(t, acct.IsCreator())
}

func TestEnsureCreator_Idempotent(t *testing.T) {
	svc, repo := newAccountService()
	ctx := context.Background()

	first, created, err := svc.EnsureCreator(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.CreatorInternalID, first.InternalID)
	assert.Equal(t, int64(testCreatorID), first.ExternalID)
	assert.Equal(t, "@cxpyuser", first.Name())

	require.NoError(t, repo.SetBalance(ctx, testCreatorID, 42))

	second, created, err := svc.EnsureCreator(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(42), second.Balance)

	creator, err := svc.Creator(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(testCreatorID), creator.ExternalID)
}

func TestEnsureAccount_ConcurrentCreation(t *testing.T) {
	svc, repo := newAccountService()
	ctx := context.Background()

	const users = 50
	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _, err := svc.EnsureAccount(ctx, id, nil)
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for i := int64(1); i <= users; i++ {
		a, err := repo.GetByExternalID(ctx, i)
		require.NoError(t, err)
		assert.False(t, seen[a.InternalID], "internal id %d assigned twice", a.InternalID)
		seen[a.InternalID] = true
		assert.GreaterOrEqual(t, a.InternalID, int64(1))
		assert.LessOrEqual(t, a.InternalID, int64(users))
	}
}

func TestGrantBonus(t *testing.T) {
	svc, repo := newAccountService()
	ctx := context.Background()

	creator, _, err := svc.EnsureCreator(ctx)
	require.NoError(t, err)

	updated, err := svc.GrantBonus(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, int64(1_010_000), updated.Balance)

	stored, err := repo.GetByExternalID(ctx, testCreatorID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_010_000), stored.Balance)
}

func TestGrantBonus_Overflow(t *testing.T) {
	svc, repo := newAccountService()
	ctx := context.Background()

	creator, _, err := svc.EnsureCreator(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SetBalance(ctx, testCreatorID, math.MaxInt64-10))
	creator.Balance = math.MaxInt64 - 10

	_, err = svc.GrantBonus(ctx, creator)
	assert.ErrorIs(t, err, ErrBonusOverflow)
}

// TestGrantBonusDeniedProperty checks that a non-creator never changes
// balance through the bonus and the creator always gains exactly the bonus.
func TestGrantBonusDeniedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc, repo := newAccountService()
		ctx := context.Background()

		balance := rapid.Int64Range(-1_000_000, 1_000_000_000).Draw(t, "balance")
		externalID := rapid.Int64Range(1, 1<<40).Draw(t, "externalID")

		acct, _, err := svc.EnsureAccount(ctx, externalID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.SetBalance(ctx, externalID, balance); err != nil {
			t.Fatal(err)
		}
		acct.Balance = balance

		updated, err := svc.GrantBonus(ctx, acct)
		stored, getErr := repo.GetByExternalID(ctx, externalID)
		if getErr != nil {
			t.Fatal(getErr)
		}

		if acct.IsCreator() {
			if err != nil || updated.Balance != balance+1_000_000 || stored.Balance != balance+1_000_000 {
				t.Fatalf("creator bonus mismatch: err=%v stored=%d", err, stored.Balance)
			}
			return
		}
		if err != ErrNotCreator {
			t.Fatalf("expected ErrNotCreator, got %v", err)
		}
		if stored.Balance != balance {
			t.Fatalf("balance changed from %d to %d", balance, stored.Balance)
		}
	})
}
