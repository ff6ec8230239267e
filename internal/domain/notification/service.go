package notification

import (
	"context"
	"fmt"
	"log"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. messenger may be nil when
// push delivery is not configured; sends then degrade to log lines.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertDeviceToken(ctx, params)
}

// SendRelinkRequired notifies a user that one of their bank connections needs
// to be re-authorized. Called by the sync pipeline when the provider reports
// the item's login is no longer valid.
func (s *Service) SendRelinkRequired(ctx context.Context, userID, itemID int64, institutionName string) error {
	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Printf("No active device tokens for user %d, skipping relink notification", userID)
		return nil
	}

	title := "Bank connection needs attention"
	body := fmt.Sprintf("Your connection to %s has expired. Tap to reconnect.", institutionName)
	data := map[string]string{
		"route":  "items",
		"itemId": fmt.Sprintf("%d", itemID),
	}

	if s.messenger == nil {
		log.Printf("Messenger not configured; relink notification for user %d dropped", userID)
		return nil
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	return s.messenger.SendMulticast(ctx, tokenStrings, title, body, data)
}
