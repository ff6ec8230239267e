// Package sync implements the transaction synchronization and reconciliation
// engine: it applies provider deltas to the local store idempotently,
// preserves locally-authored annotations, and couples cursor advancement to
// mutation durability.
package sync

import (
	"errors"
	"fmt"
)

// Sentinel errors, terminal for one invocation.
var (
	// ErrItemNotFound means no item exists for the requested ID.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemInactive means the item was unlinked; syncing requires user action.
	ErrItemInactive = errors.New("item is inactive")

	// ErrSyncInProgress means another invocation holds the per-item lock.
	// Callers should back off; this is not a failure.
	ErrSyncInProgress = errors.New("sync already in progress for item")
)

// ProviderError wraps a remote-service failure. Retryable; no state changed.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure. Retryable; the cursor is unchanged.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AccountSummary counts account mutations from one reconcile call.
type AccountSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// TransactionSummary counts transaction mutations from one reconcile call.
// Skipped counts delta entries whose account is not yet known locally.
type TransactionSummary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
}

// Result summarizes one completed RunSync invocation.
// HasMore is true when the per-invocation page bound was hit before the
// provider ran out of pages; the caller should re-invoke.
type Result struct {
	ItemID          int64 `json:"itemId"`
	Added           int   `json:"added"`
	Modified        int   `json:"modified"`
	Removed         int   `json:"removed"`
	Skipped         int   `json:"skipped"`
	AccountsCreated int   `json:"accountsCreated"`
	AccountsUpdated int   `json:"accountsUpdated"`
	Pages           int   `json:"pages"`
	HasMore         bool  `json:"hasMore"`
}
