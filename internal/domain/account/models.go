// Package account defines the financial account domain entity.
package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Allowed account types from the provider API.
var accountTypes = map[string]struct{}{
	"depository": {},
	"credit":     {},
	"loan":       {},
	"investment": {},
	"other":      {},
}

// Domain errors
var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrAccountNotFound    = errors.New("account not found")
	ErrForbidden          = errors.New("access forbidden")
)

// Account represents one financial account under an item.
// Provider-sourced fields are refreshed on every sync; the provider account
// ID is unique and immutable for the lifetime of the row.
type Account struct {
	ID                 int64            `json:"id"`
	ProviderAccountID  string           `json:"providerAccountId"`
	UserID             int64            `json:"userId"`
	ItemID             int64            `json:"itemId"`
	InstitutionID      string           `json:"institutionId"`
	Name               string           `json:"name"`
	OfficialName       *string          `json:"officialName,omitempty"`
	Type               string           `json:"type"`
	Subtype            string           `json:"subtype"`
	Mask               *string          `json:"mask,omitempty"`
	AvailableBalance   *decimal.Decimal `json:"availableBalance,omitempty"`
	CurrentBalance     *decimal.Decimal `json:"currentBalance,omitempty"`
	LimitBalance       *decimal.Decimal `json:"limitBalance,omitempty"`
	ISOCurrencyCode    *string          `json:"isoCurrencyCode,omitempty"`
	VerificationStatus *string          `json:"verificationStatus,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// UpsertParams contains the provider-sourced fields written on every sync.
// Fields owned by other subsystems are deliberately absent.
type UpsertParams struct {
	ProviderAccountID  string
	UserID             int64
	ItemID             int64
	InstitutionID      string
	Name               string
	OfficialName       *string
	Type               string
	Subtype            string
	Mask               *string
	AvailableBalance   *decimal.Decimal
	CurrentBalance     *decimal.Decimal
	LimitBalance       *decimal.Decimal
	ISOCurrencyCode    *string
	VerificationStatus *string
}

// Validate validates the upsert parameters.
func (p UpsertParams) Validate() error {
	if p.ProviderAccountID == "" {
		return errors.New("provider account ID is required for upsert")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required for upsert")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if !IsValidAccountType(p.Type) {
		return ErrInvalidAccountType
	}
	return nil
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}
