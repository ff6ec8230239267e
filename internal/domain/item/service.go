package item

import (
	"context"
	"errors"
	"fmt"
	"log"

	"arca/internal/domain/institution"
	"arca/internal/infrastructure/provider"
)

// Service contains the business logic for the item linking flow.
type Service struct {
	items        Repository
	institutions institution.Repository
	client       provider.ClientInterface
	webhookURL   string
}

// NewService creates an item service. webhookURL is passed to the provider
// when creating link tokens; may be empty.
func NewService(items Repository, institutions institution.Repository, client provider.ClientInterface, webhookURL string) *Service {
	return &Service{
		items:        items,
		institutions: institutions,
		client:       client,
		webhookURL:   webhookURL,
	}
}

// CreateLinkToken starts the linking flow for a user.
func (s *Service) CreateLinkToken(ctx context.Context, userID int64) (*provider.LinkTokenResponse, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.client.CreateLinkToken(ctx, userID, s.webhookURL)
}

// LinkItem completes the linking flow: exchanges the public token for an
// access token, snapshots the institution, and persists the item. Linking the
// same provider item twice returns the existing row.
func (s *Service) LinkItem(ctx context.Context, userID int64, publicToken, institutionID string) (*Item, error) {
	if publicToken == "" {
		return nil, errors.New("public token is required")
	}
	if institutionID == "" {
		return nil, errors.New("institution ID is required")
	}

	exchange, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	existing, err := s.items.GetByProviderItemID(ctx, exchange.ItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != userID {
			return nil, ErrForbidden
		}
		return existing, nil
	}

	s.snapshotInstitution(ctx, institutionID)

	var webhookURL *string
	if s.webhookURL != "" {
		webhookURL = &s.webhookURL
	}

	return s.items.Create(ctx, CreateParams{
		ProviderItemID: exchange.ItemID,
		AccessToken:    exchange.AccessToken,
		UserID:         userID,
		InstitutionID:  institutionID,
		WebhookURL:     webhookURL,
	})
}

// snapshotInstitution caches the institution record locally. Failures are
// logged, not fatal: the link must not break because branding metadata is
// unavailable.
func (s *Service) snapshotInstitution(ctx context.Context, institutionID string) {
	ins, err := s.client.GetInstitution(ctx, institutionID)
	if err != nil {
		log.Printf("Failed to fetch institution %s: %v", institutionID, err)
		return
	}

	_, err = s.institutions.Upsert(ctx, institution.UpsertParams{
		ProviderInstitutionID: ins.InstitutionID,
		Name:                  ins.Name,
		Country:               ins.Country,
		URL:                   ins.URL,
		PrimaryColor:          ins.PrimaryColor,
		Logo:                  ins.Logo,
	})
	if err != nil {
		log.Printf("Failed to store institution %s: %v", institutionID, err)
	}
}

// ListItems returns all items for a user.
func (s *Service) ListItems(ctx context.Context, userID int64) ([]*Item, error) {
	return s.items.ListByUserID(ctx, userID)
}

// GetItem returns one item owned by the user.
func (s *Service) GetItem(ctx context.Context, id, userID int64) (*Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrItemNotFound
	}
	if it.UserID != userID {
		return nil, ErrForbidden
	}
	return it, nil
}

// Unlink deactivates an item. Accounts and transactions under it are kept.
func (s *Service) Unlink(ctx context.Context, id, userID int64) error {
	return s.items.Deactivate(ctx, id, userID)
}
