package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"arca/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id, provider_account_id, user_id, item_id, institution_id, name, official_name,
	account_type, subtype, mask, available_balance, current_balance, limit_balance,
	iso_currency_code, verification_status, created_at, updated_at`

// Upsert creates or refreshes an account keyed by provider_account_id.
// Only provider-sourced columns are written on conflict.
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO accounts (
			provider_account_id, user_id, item_id, institution_id, name, official_name,
			account_type, subtype, mask, available_balance, current_balance, limit_balance,
			iso_currency_code, verification_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (provider_account_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			official_name = EXCLUDED.official_name,
			account_type = EXCLUDED.account_type,
			subtype = EXCLUDED.subtype,
			mask = EXCLUDED.mask,
			available_balance = EXCLUDED.available_balance,
			current_balance = EXCLUDED.current_balance,
			limit_balance = EXCLUDED.limit_balance,
			iso_currency_code = EXCLUDED.iso_currency_code,
			verification_status = EXCLUDED.verification_status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING` + accountColumns

	var acc account.Account
	err := r.db.QueryRowContext(
		ctx, query,
		params.ProviderAccountID, params.UserID, params.ItemID, params.InstitutionID,
		params.Name, params.OfficialName, params.Type, params.Subtype, params.Mask,
		params.AvailableBalance, params.CurrentBalance, params.LimitBalance,
		params.ISOCurrencyCode, params.VerificationStatus,
	).Scan(
		&acc.ID, &acc.ProviderAccountID, &acc.UserID, &acc.ItemID, &acc.InstitutionID,
		&acc.Name, &acc.OfficialName, &acc.Type, &acc.Subtype, &acc.Mask,
		&acc.AvailableBalance, &acc.CurrentBalance, &acc.LimitBalance,
		&acc.ISOCurrencyCode, &acc.VerificationStatus, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return &acc, nil
}

// GetByProviderID retrieves an account by the provider-assigned account ID.
func (r *AccountRepository) GetByProviderID(ctx context.Context, providerAccountID string) (*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE provider_account_id = $1`

	var acc account.Account
	err := r.db.QueryRowContext(ctx, query, providerAccountID).Scan(
		&acc.ID, &acc.ProviderAccountID, &acc.UserID, &acc.ItemID, &acc.InstitutionID,
		&acc.Name, &acc.OfficialName, &acc.Type, &acc.Subtype, &acc.Mask,
		&acc.AvailableBalance, &acc.CurrentBalance, &acc.LimitBalance,
		&acc.ISOCurrencyCode, &acc.VerificationStatus, &acc.CreatedAt, &acc.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Exists checks if an account with the given provider account ID exists
func (r *AccountRepository) Exists(ctx context.Context, providerAccountID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE provider_account_id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, providerAccountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}

// ListByUserID retrieves all accounts for a specific user
func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

// ListByItemID retrieves all accounts under one item
func (r *AccountRepository) ListByItemID(ctx context.Context, itemID int64) ([]*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE item_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, itemID)
}

func (r *AccountRepository) list(ctx context.Context, query string, args ...any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var acc account.Account
		err := rows.Scan(
			&acc.ID, &acc.ProviderAccountID, &acc.UserID, &acc.ItemID, &acc.InstitutionID,
			&acc.Name, &acc.OfficialName, &acc.Type, &acc.Subtype, &acc.Mask,
			&acc.AvailableBalance, &acc.CurrentBalance, &acc.LimitBalance,
			&acc.ISOCurrencyCode, &acc.VerificationStatus, &acc.CreatedAt, &acc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Delete removes an account owned by the user
func (r *AccountRepository) Delete(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM accounts WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}
