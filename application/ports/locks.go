package ports

import (
	"context"
	"time"
)

// Lock is a held distributed lock
type Lock interface {
	// Release gives the lock back; safe to call after expiry
	Release(ctx context.Context) error
}

// DistributedLock serializes multi-step operations on a shared resource
// across concurrently running handlers
type DistributedLock interface {
	// AcquireLock takes the lock for the resource, failing fast if it is held
	AcquireLock(ctx context.Context, resourceName, ownerID string, lockDuration time.Duration) (Lock, error)

	// TryAcquireLock retries acquisition until the timeout elapses
	TryAcquireLock(ctx context.Context, resourceName, ownerID string, lockDuration, timeout time.Duration) (Lock, error)
}
