package provider

import "context"

// ClientInterface defines the methods required from the provider API client.
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID int64, webhookURL string) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	SyncTransactions(ctx context.Context, accessToken string, cursor *string) (*SyncResponse, error)
	GetInstitution(ctx context.Context, institutionID string) (*Institution, error)
}
