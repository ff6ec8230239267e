package notification

import "context"

// Repository defines the interface for device token data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// UpsertDeviceToken registers a token, reactivating and reassigning it if
	// it already exists for another user.
	UpsertDeviceToken(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error)

	// GetActiveTokensByUserID retrieves active tokens for one user.
	GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*DeviceToken, error)

	// DeactivateToken marks a token inactive (invalid/unregistered per FCM).
	DeactivateToken(ctx context.Context, token string) error
}
