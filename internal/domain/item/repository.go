package item

import (
	"context"
	"time"
)

// Repository defines the interface for item data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Create persists a new item from the linking flow.
	Create(ctx context.Context, params CreateParams) (*Item, error)

	// GetByID retrieves an item by its internal ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id int64) (*Item, error)

	// GetByProviderItemID retrieves an item by the provider-assigned item ID.
	GetByProviderItemID(ctx context.Context, providerItemID string) (*Item, error)

	// ListByUserID retrieves all items for a user.
	ListByUserID(ctx context.Context, userID int64) ([]*Item, error)

	// ListActive retrieves all active items across users (scheduler input).
	ListActive(ctx context.Context) ([]*Item, error)

	// AdvanceCursor persists a new sync cursor and last-sync timestamp.
	// Must only be called after the corresponding page's mutations are committed.
	AdvanceCursor(ctx context.Context, id int64, cursor string, lastSync time.Time) error

	// Deactivate flips the active flag off. Items are never hard-deleted.
	Deactivate(ctx context.Context, id, userID int64) error
}
