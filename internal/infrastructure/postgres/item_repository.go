package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arca/internal/domain/item"
	"arca/internal/infrastructure/crypto"
)

// ItemRepository implements the item.Repository interface for PostgreSQL.
// Provider access tokens are encrypted before they touch the database.
type ItemRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

// NewItemRepository creates a new PostgreSQL item repository
func NewItemRepository(db *DB, encryptor *crypto.Encryptor) *ItemRepository {
	return &ItemRepository{db: db, encryptor: encryptor}
}

const itemColumns = `
	id, provider_item_id, access_token, user_id, institution_id, cursor,
	webhook_url, is_active, last_sync, created_at, updated_at`

func (r *ItemRepository) scanItem(row interface{ Scan(...any) error }) (*item.Item, error) {
	var it item.Item
	err := row.Scan(
		&it.ID, &it.ProviderItemID, &it.AccessToken, &it.UserID, &it.InstitutionID,
		&it.Cursor, &it.WebhookURL, &it.IsActive, &it.LastSync,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	token, err := r.encryptor.Decrypt(it.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	it.AccessToken = token

	return &it, nil
}

// Create persists a new item from the linking flow
func (r *ItemRepository) Create(ctx context.Context, params item.CreateParams) (*item.Item, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO items (provider_item_id, access_token, user_id, institution_id, webhook_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING` + itemColumns

	it, err := r.scanItem(r.db.QueryRowContext(
		ctx, query,
		params.ProviderItemID, encrypted, params.UserID, params.InstitutionID, params.WebhookURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return it, nil
}

// GetByID retrieves an item by its internal ID
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		WHERE id = $1`

	it, err := r.scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return it, nil
}

// GetByProviderItemID retrieves an item by the provider-assigned item ID
func (r *ItemRepository) GetByProviderItemID(ctx context.Context, providerItemID string) (*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		WHERE provider_item_id = $1`

	it, err := r.scanItem(r.db.QueryRowContext(ctx, query, providerItemID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return it, nil
}

// ListByUserID retrieves all items for a user
func (r *ItemRepository) ListByUserID(ctx context.Context, userID int64) ([]*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

// ListActive retrieves all active items across users
func (r *ItemRepository) ListActive(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		WHERE is_active = TRUE
		ORDER BY id`

	return r.list(ctx, query)
}

func (r *ItemRepository) list(ctx context.Context, query string, args ...any) ([]*item.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// AdvanceCursor persists a new sync cursor and last-sync timestamp.
// Callers commit the page's mutations first; this is the last write of a
// page cycle.
func (r *ItemRepository) AdvanceCursor(ctx context.Context, id int64, cursor string, lastSync time.Time) error {
	query := `
		UPDATE items
		SET cursor = $2, last_sync = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, cursor, lastSync)
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return item.ErrItemNotFound
	}

	return nil
}

// Deactivate flips the active flag off. Items are never hard-deleted so
// history under them stays queryable.
func (r *ItemRepository) Deactivate(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE items
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return item.ErrItemNotFound
	}

	return nil
}
