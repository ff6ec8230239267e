package institution

import "context"

// Repository defines the interface for institution data access.
type Repository interface {
	// Upsert creates or refreshes an institution keyed by provider institution ID.
	Upsert(ctx context.Context, params UpsertParams) (*Institution, error)

	// GetByProviderID retrieves an institution by the provider-assigned ID.
	// Returns (nil, nil) when absent.
	GetByProviderID(ctx context.Context, providerInstitutionID string) (*Institution, error)
}
