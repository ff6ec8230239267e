package account

import "context"

// Repository defines the interface for account data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Upsert creates or refreshes an account keyed by provider account ID.
	// Only provider-sourced fields are written on conflict; the statement is
	// atomic (no read-then-write race surfaces to callers).
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)

	// GetByProviderID retrieves an account by the provider-assigned account ID.
	// Returns (nil, nil) when absent.
	GetByProviderID(ctx context.Context, providerAccountID string) (*Account, error)

	// Exists checks whether an account with the given provider account ID exists.
	Exists(ctx context.Context, providerAccountID string) (bool, error)

	// ListByUserID retrieves all accounts for a user.
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// ListByItemID retrieves all accounts under one item.
	ListByItemID(ctx context.Context, itemID int64) ([]*Account, error)

	// Delete removes an account. Explicit user action only; the sync engine
	// never deletes accounts.
	Delete(ctx context.Context, id, userID int64) error
}
