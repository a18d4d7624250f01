package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafetyProperty checks that concurrent read-modify-write
// sequences under the lock end in the same balance as sequential execution.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		ul := NewUserLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				ul.Lock(userID)
				defer ul.Unlock(userID)
				current := balance
				balance = current + amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d", expected, balance)
		}
		if ul.Len() != 0 {
			t.Fatalf("expected all lock entries released, %d left", ul.Len())
		}
	})
}

// TestMultipleUsersIndependentLocksProperty checks that locks on different
// users do not interfere.
func TestMultipleUsersIndependentLocksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numUsers := rapid.IntRange(2, 10).Draw(t, "numUsers")
		opsPerUser := rapid.IntRange(5, 20).Draw(t, "opsPerUser")

		ul := NewUserLock()
		balances := make([]int64, numUsers+1)

		var wg sync.WaitGroup
		wg.Add(numUsers * opsPerUser)
		for uid := 1; uid <= numUsers; uid++ {
			for j := 0; j < opsPerUser; j++ {
				go func(uid int) {
					defer wg.Done()
					_ = ul.WithLock(int64(uid), func() error {
						balances[uid] += 10
						return nil
					})
				}(uid)
			}
		}
		wg.Wait()

		for uid := 1; uid <= numUsers; uid++ {
			if balances[uid] != int64(opsPerUser)*10 {
				t.Fatalf("user %d: expected %d, got %d", uid, opsPerUser*10, balances[uid])
			}
		}
	})
}

// TestTryLockExclusiveProperty checks that TryLock never admits two holders at once.
func TestTryLockExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		attempts := rapid.IntRange(5, 20).Draw(t, "attempts")

		ul := NewUserLock()
		var holders, maxHolders atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		wg.Add(attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				defer wg.Done()
				<-start
				if ul.TryLock(userID) {
					n := holders.Add(1)
					for {
						m := maxHolders.Load()
						if n <= m || maxHolders.CompareAndSwap(m, n) {
							break
						}
					}
					holders.Add(-1)
					ul.Unlock(userID)
				}
			}()
		}
		close(start)
		wg.Wait()

		if maxHolders.Load() > 1 {
			t.Fatalf("TryLock admitted %d concurrent holders", maxHolders.Load())
		}
		if !ul.TryLock(userID) {
			t.Fatal("lock should be available after all holders released")
		}
		ul.Unlock(userID)
	})
}

func TestWithLockTimeout(t *testing.T) {
	ul := NewUserLock()
	ul.Lock(7)

	err := ul.WithLockTimeout(context.Background(), 7, 20*time.Millisecond, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.True(t, ul.IsLocked(7))

	ul.Unlock(7)
	assert.False(t, ul.IsLocked(7))

	ran := false
	err = ul.WithLockTimeout(context.Background(), 7, time.Second, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 0, ul.Len())
}

func TestLockContextCancelled(t *testing.T) {
	ul := NewUserLock()
	ul.Lock(1)
	defer ul.Unlock(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ul.LockContext(ctx, 1), context.Canceled)
}

func TestUnlockNotHeldIsNoop(t *testing.T) {
	ul := NewUserLock()
	ul.Unlock(99)
	assert.True(t, ul.TryLock(99))
	ul.Unlock(99)
}
