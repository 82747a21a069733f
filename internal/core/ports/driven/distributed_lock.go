package driven

import (
	"context"
	"time"
)

// DistributedLock serialises work on a key across instances.
// Signup uses it so that two registrations of one contact number cannot
// both pass the existence check.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns false if the lock is currently held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error
}
