// Package provider implements the client for the financial-data provider API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 60 * time.Second

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	accountsPath     = "/accounts/get"
	syncPath         = "/transactions/sync"
	institutionsPath = "/institutions/get_by_id"
)

// Environment base URLs.
var environments = map[string]string{
	"sandbox":    "https://sandbox.provider.com/api",
	"production": "https://production.provider.com/api",
}

// Client handles communication with the provider API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Config holds provider client configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // "sandbox" or "production"
	BaseURL     string // overrides Environment when set
	Timeout     time.Duration
}

// NewClient creates a new provider API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = environments[cfg.Environment]
	}
	if baseURL == "" {
		baseURL = environments["sandbox"]
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
	}
}

// Balances represents an account balance snapshot.
type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	Limit           *decimal.Decimal `json:"limit"`
	ISOCurrencyCode *string          `json:"iso_currency_code"`
}

// Account represents an account snapshot from the provider.
type Account struct {
	AccountID          string   `json:"account_id"`
	Name               string   `json:"name"`
	OfficialName       *string  `json:"official_name"`
	Type               string   `json:"type"`
	Subtype            string   `json:"subtype"`
	Mask               *string  `json:"mask"`
	Balances           Balances `json:"balances"`
	VerificationStatus *string  `json:"verification_status"`
}

// AccountsResponse represents the API response for account data.
type AccountsResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id"`
}

// Item carries item context returned alongside accounts.
type Item struct {
	ItemID        string  `json:"item_id"`
	InstitutionID string  `json:"institution_id"`
	WebhookURL    *string `json:"webhook"`
}

// Transaction represents a transaction from the provider.
type Transaction struct {
	TransactionID        string          `json:"transaction_id"`
	AccountID            string          `json:"account_id"`
	Amount               decimal.Decimal `json:"amount"`
	ISOCurrencyCode      *string         `json:"iso_currency_code"`
	Category             []string        `json:"category"`
	CategoryID           *string         `json:"category_id"`
	MerchantName         *string         `json:"merchant_name"`
	Name                 string          `json:"name"`
	OriginalDescription  *string         `json:"original_description"`
	DateString           string          `json:"date"`            // "2006-01-02"
	AuthorizedDateString *string         `json:"authorized_date"` // "2006-01-02"
	Pending              bool            `json:"pending"`
	PendingTransactionID *string         `json:"pending_transaction_id"`
	AccountOwner         *string         `json:"account_owner"`
	TransactionType      *string         `json:"transaction_type"`
	TransactionCode      *string         `json:"transaction_code"`
	Location             json.RawMessage `json:"location"`
	PaymentMeta          json.RawMessage `json:"payment_meta"`
}

// GetDate parses and returns the transaction date.
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", t.DateString, err)
	}
	return parsed, nil
}

// GetAuthorizedDate parses and returns the authorized date if present.
func (t *Transaction) GetAuthorizedDate() (*time.Time, error) {
	if t.AuthorizedDateString == nil || *t.AuthorizedDateString == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *t.AuthorizedDateString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorized_date %q: %w", *t.AuthorizedDateString, err)
	}
	return &parsed, nil
}

// RemovedTransaction identifies a transaction removed by the provider.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// SyncResponse represents one page of the transaction delta.
type SyncResponse struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

// Institution represents institution details from the provider.
type Institution struct {
	InstitutionID string  `json:"institution_id"`
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	URL           *string `json:"url"`
	PrimaryColor  *string `json:"primary_color"`
	Logo          *string `json:"logo"`
}

// LinkTokenResponse represents the response to a link-token request.
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

// ExchangeResponse represents the response to a public-token exchange.
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// APIError represents an error response from the provider API.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error (status %d): %s - %s", e.StatusCode, e.ErrorCode, e.ErrorMessage)
}

// IsLoginRequired reports whether the error means the item's credential was
// revoked and the user must relink.
func IsLoginRequired(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == "ITEM_LOGIN_REQUIRED"
	}
	return false
}

// post executes a provider API call. All provider endpoints are POST with a
// JSON body carrying the client credentials.
func (c *Client) post(ctx context.Context, path string, body map[string]any, out any) error {
	body["client_id"] = c.clientID
	body["secret"] = c.secret

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// CreateLinkToken creates a link token used to initialize the linking flow.
func (c *Client) CreateLinkToken(ctx context.Context, userID int64, webhookURL string) (*LinkTokenResponse, error) {
	body := map[string]any{
		"client_name":   "arca",
		"language":      "en",
		"country_codes": []string{"US"},
		"products":      []string{"transactions"},
		"user":          map[string]string{"client_user_id": fmt.Sprintf("%d", userID)},
	}
	if webhookURL != "" {
		body["webhook"] = webhookURL
	}

	var out LinkTokenResponse
	if err := c.post(ctx, linkTokenPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangePublicToken exchanges a public token for a permanent access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	var out ExchangeResponse
	if err := c.post(ctx, exchangePath, map[string]any{"public_token": publicToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccounts fetches the full account snapshot for an access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	var out AccountsResponse
	if err := c.post(ctx, accountsPath, map[string]any{"access_token": accessToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncTransactions fetches one page of the transaction delta since cursor.
// A nil cursor means a full initial fetch.
func (c *Client) SyncTransactions(ctx context.Context, accessToken string, cursor *string) (*SyncResponse, error) {
	body := map[string]any{"access_token": accessToken}
	if cursor != nil && *cursor != "" {
		body["cursor"] = *cursor
	}

	var out SyncResponse
	if err := c.post(ctx, syncPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInstitution fetches institution details by provider institution ID.
func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	body := map[string]any{
		"institution_id": institutionID,
		"country_codes":  []string{"US"},
	}

	var out struct {
		Institution Institution `json:"institution"`
		RequestID   string      `json:"request_id"`
	}
	if err := c.post(ctx, institutionsPath, body, &out); err != nil {
		return nil, err
	}
	return &out.Institution, nil
}
