package transaction

import (
	"context"
	"time"
)

// Repository defines the interface for transaction data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Upsert creates or refreshes a transaction keyed by provider transaction
	// ID. Only provider-sourced fields are written on conflict; annotation
	// fields are never part of the statement. The returned bool is true when
	// the row was inserted, false when an existing row was refreshed.
	Upsert(ctx context.Context, params UpsertParams) (*Transaction, bool, error)

	// GetByProviderID retrieves a transaction by the provider-assigned ID.
	// Returns (nil, nil) when absent.
	GetByProviderID(ctx context.Context, providerTransactionID string) (*Transaction, error)

	// GetByID retrieves a transaction owned by the user.
	GetByID(ctx context.Context, id, userID int64) (*Transaction, error)

	// DeleteByProviderID hard-removes a transaction. Returns false when no
	// row matched; absence is not an error (idempotent under retry).
	DeleteByProviderID(ctx context.Context, providerTransactionID string, userID int64) (bool, error)

	// UpdateAnnotations writes the locally-authored annotation block.
	// This is the only write path for annotation fields.
	UpdateAnnotations(ctx context.Context, id, userID int64, params AnnotationParams) (*Transaction, error)

	// ListByUserID retrieves transactions for a user with optional filtering.
	ListByUserID(ctx context.Context, userID int64, filter Filter) ([]*Transaction, error)

	// ListUnannotated retrieves recent transactions without an AI category,
	// feeding the annotation pass after a sync.
	ListUnannotated(ctx context.Context, userID int64, since time.Time, limit int) ([]*Transaction, error)
}
