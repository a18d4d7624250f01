package lock

import "errors"

// ErrLockTimeout is returned by WithLockTimeout when another command of the
// same account still holds the lock after the timeout.
var ErrLockTimeout = errors.New("user lock timeout")
