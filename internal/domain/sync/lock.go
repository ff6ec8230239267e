package sync

import (
	"context"
	"time"
)

// Locker provides an exclusive per-item lease. Invocations may originate from
// different processes, so the lease lives in the store (a row with expiry),
// not in process memory. A lease whose expiry has passed may be taken over.
type Locker interface {
	// Acquire tries to take the lease for itemID on behalf of owner.
	// Returns false without blocking when another live owner holds it.
	Acquire(ctx context.Context, itemID int64, owner string, ttl time.Duration) (bool, error)

	// Release frees the lease if owner still holds it. Releasing a lease that
	// expired and was taken over is a no-op.
	Release(ctx context.Context, itemID int64, owner string) error
}
