// Package item defines the linked-item domain entity: one authorized
// connection between a user and a financial institution via the provider.
package item

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrForbidden    = errors.New("access forbidden")
)

// Item represents one provider connection for one user. A single item can
// carry multiple accounts (e.g. checking + credit card from the same bank).
type Item struct {
	ID             int64      `json:"id"`
	ProviderItemID string     `json:"providerItemId"`
	AccessToken    string     `json:"-"` // encrypted at rest, never serialized
	UserID         int64      `json:"userId"`
	InstitutionID  string     `json:"institutionId"`
	Cursor         *string    `json:"-"` // nil = never synced
	WebhookURL     *string    `json:"webhookUrl,omitempty"`
	IsActive       bool       `json:"isActive"`
	LastSync       *time.Time `json:"lastSync,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new item after a successful
// public-token exchange.
type CreateParams struct {
	ProviderItemID string
	AccessToken    string
	UserID         int64
	InstitutionID  string
	WebhookURL     *string
}

// Validate validates the create parameters.
func (p CreateParams) Validate() error {
	if p.ProviderItemID == "" {
		return errors.New("provider item ID is required")
	}
	if p.AccessToken == "" {
		return errors.New("access token is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.InstitutionID == "" {
		return errors.New("institution ID is required")
	}
	return nil
}
