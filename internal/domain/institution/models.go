// Package institution defines the financial institution domain entity.
package institution

import "time"

// Institution represents a financial institution known to the provider.
type Institution struct {
	ID                    int64     `json:"id"`
	ProviderInstitutionID string    `json:"providerInstitutionId"`
	Name                  string    `json:"name"`
	Country               string    `json:"country"`
	URL                   *string   `json:"url,omitempty"`
	PrimaryColor          *string   `json:"primaryColor,omitempty"`
	Logo                  *string   `json:"logo,omitempty"` // base64 encoded
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// UpsertParams contains the provider-sourced institution fields.
type UpsertParams struct {
	ProviderInstitutionID string
	Name                  string
	Country               string
	URL                   *string
	PrimaryColor          *string
	Logo                  *string
}
