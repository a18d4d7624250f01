// Package lock provides per-account locking so each account has at most
// one command mutating it at a time.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// entry is a one-slot semaphore shared by every goroutine interested in a key.
type entry struct {
	sem  chan struct{}
	refs int // holders + waiters; the entry is dropped when it reaches 0
}

// UserLock provides per-user mutual exclusion keyed by external id.
// Entries are created on demand and removed once nobody holds or waits on them.
type UserLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{entries: make(map[int64]*entry)}
}

func (ul *UserLock) acquireRef(userID int64) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		ul.entries[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) releaseRef(userID int64, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(ul.entries, userID)
	}
}

// Lock blocks until the lock for userID is held.
func (ul *UserLock) Lock(userID int64) {
	e := ul.acquireRef(userID)
	e.sem <- struct{}{}
}

// Unlock releases the lock for userID. Unlocking a key that is not held is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	e, ok := ul.entries[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-e.sem:
		ul.releaseRef(userID, e)
	default:
	}
}

// TryLock attempts to acquire the lock without blocking.
func (ul *UserLock) TryLock(userID int64) bool {
	e := ul.acquireRef(userID)
	select {
	case e.sem <- struct{}{}:
		return true
	default:
		ul.releaseRef(userID, e)
		return false
	}
}

// LockContext waits for the lock until ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	e := ul.acquireRef(userID)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.releaseRef(userID, e)
		return ctx.Err()
	}
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockTimeout executes fn while holding the user's lock, giving up with
// ErrLockTimeout when the lock is not acquired within timeout.
func (ul *UserLock) WithLockTimeout(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ul.LockContext(lockCtx, userID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrLockTimeout
		}
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// IsLocked checks if a user currently has an active lock.
// This is a point-in-time check and may change immediately after.
func (ul *UserLock) IsLocked(userID int64) bool {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.entries[userID]
	return ok && len(e.sem) == 1
}

// Len returns the number of keys currently tracked.
func (ul *UserLock) Len() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.entries)
}
