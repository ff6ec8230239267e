// Package transaction defines the ledger-entry domain entity.
package transaction

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("access forbidden")
)

// Transaction represents one posted or pending ledger entry under an account.
//
// Provider-sourced fields are refreshed by the sync engine. The AI* annotation
// fields are locally authored (annotation subsystem or user edits) and are
// never written by the reconciler.
type Transaction struct {
	ID                    int64           `json:"id"`
	ProviderTransactionID string          `json:"providerTransactionId"`
	UserID                int64           `json:"userId"`
	AccountID             int64           `json:"accountId"`
	Amount                decimal.Decimal `json:"amount"`
	ISOCurrencyCode       *string         `json:"isoCurrencyCode,omitempty"`
	Category              []string        `json:"category,omitempty"` // most general first
	CategoryID            *string         `json:"categoryId,omitempty"`
	MerchantName          *string         `json:"merchantName,omitempty"`
	Name                  string          `json:"name"`
	OriginalDescription   *string         `json:"originalDescription,omitempty"`
	Date                  time.Time       `json:"date"`
	AuthorizedDate        *time.Time      `json:"authorizedDate,omitempty"`
	Pending               bool            `json:"pending"`
	PendingTransactionID  *string         `json:"pendingTransactionId,omitempty"`
	AccountOwner          *string         `json:"accountOwner,omitempty"`
	TransactionType       *string         `json:"transactionType,omitempty"`
	TransactionCode       *string         `json:"transactionCode,omitempty"`
	Location              json.RawMessage `json:"location,omitempty"`    // stored, not interpreted
	PaymentMeta           json.RawMessage `json:"paymentMeta,omitempty"` // stored, not interpreted

	// Annotations. Written only by the annotation subsystem.
	AICategory  *string  `json:"aiCategory,omitempty"`
	AISentiment *string  `json:"aiSentiment,omitempty"`
	AITags      []string `json:"aiTags,omitempty"`
	AINotes     *string  `json:"aiNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertParams contains the provider-sourced fields written on every sync.
// Annotation fields are deliberately absent: an upsert can never touch them.
type UpsertParams struct {
	ProviderTransactionID string
	UserID                int64
	AccountID             int64
	Amount                decimal.Decimal
	ISOCurrencyCode       *string
	Category              []string
	CategoryID            *string
	MerchantName          *string
	Name                  string
	OriginalDescription   *string
	Date                  time.Time
	AuthorizedDate        *time.Time
	Pending               bool
	PendingTransactionID  *string
	AccountOwner          *string
	TransactionType       *string
	TransactionCode       *string
	Location              json.RawMessage
	PaymentMeta           json.RawMessage
}

// Validate validates the upsert parameters.
func (p UpsertParams) Validate() error {
	if p.ProviderTransactionID == "" {
		return errors.New("provider transaction ID is required for upsert")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required for upsert")
	}
	if p.AccountID <= 0 {
		return errors.New("valid account ID is required for upsert")
	}
	if p.Name == "" {
		return errors.New("transaction name is required")
	}
	if p.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	return nil
}

// AnnotationParams contains the locally-authored annotation fields.
// nil pointers leave the stored value unchanged; Tags replaces the whole set.
type AnnotationParams struct {
	Category  *string
	Sentiment *string
	Tags      []string
	Notes     *string
}

// Filter narrows transaction listings.
type Filter struct {
	AccountID *int64
	StartDate *time.Time
	EndDate   *time.Time
	Pending   *bool
	Limit     int
	Offset    int
}
