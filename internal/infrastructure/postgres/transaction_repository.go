package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"arca/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for
// PostgreSQL.
//
// Provider-sourced columns and annotation columns have disjoint write paths:
// Upsert never mentions the ai_* columns, UpdateAnnotations writes nothing
// else. The separation lives in the SQL so no caller can get it wrong.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, provider_transaction_id, user_id, account_id, amount, iso_currency_code,
	category, category_id, merchant_name, name, original_description, date,
	authorized_date, pending, pending_transaction_id, account_owner,
	transaction_type, transaction_code, location, payment_meta,
	ai_category, ai_sentiment, ai_tags, ai_notes, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	err := row.Scan(
		&tx.ID, &tx.ProviderTransactionID, &tx.UserID, &tx.AccountID,
		&tx.Amount, &tx.ISOCurrencyCode, pq.Array(&tx.Category), &tx.CategoryID,
		&tx.MerchantName, &tx.Name, &tx.OriginalDescription, &tx.Date,
		&tx.AuthorizedDate, &tx.Pending, &tx.PendingTransactionID, &tx.AccountOwner,
		&tx.TransactionType, &tx.TransactionCode, &tx.Location, &tx.PaymentMeta,
		&tx.AICategory, &tx.AISentiment, pq.Array(&tx.AITags), &tx.AINotes,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Upsert creates or refreshes a transaction keyed by provider_transaction_id.
// The returned bool is true for an insert, false for an update; xmax = 0 only
// holds for rows created in the current transaction.
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, bool, error) {
	if err := params.Validate(); err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO transactions (
			provider_transaction_id, user_id, account_id, amount, iso_currency_code,
			category, category_id, merchant_name, name, original_description, date,
			authorized_date, pending, pending_transaction_id, account_owner,
			transaction_type, transaction_code, location, payment_meta
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (provider_transaction_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			amount = EXCLUDED.amount,
			iso_currency_code = EXCLUDED.iso_currency_code,
			category = EXCLUDED.category,
			category_id = EXCLUDED.category_id,
			merchant_name = EXCLUDED.merchant_name,
			name = EXCLUDED.name,
			original_description = EXCLUDED.original_description,
			date = EXCLUDED.date,
			authorized_date = EXCLUDED.authorized_date,
			pending = EXCLUDED.pending,
			pending_transaction_id = EXCLUDED.pending_transaction_id,
			account_owner = EXCLUDED.account_owner,
			transaction_type = EXCLUDED.transaction_type,
			transaction_code = EXCLUDED.transaction_code,
			location = EXCLUDED.location,
			payment_meta = EXCLUDED.payment_meta,
			updated_at = CURRENT_TIMESTAMP
		RETURNING` + transactionColumns + `, (xmax = 0) AS inserted`

	var tx transaction.Transaction
	var inserted bool
	err := r.db.QueryRowContext(
		ctx, query,
		params.ProviderTransactionID, params.UserID, params.AccountID, params.Amount,
		params.ISOCurrencyCode, pq.Array(params.Category), params.CategoryID,
		params.MerchantName, params.Name, params.OriginalDescription, params.Date,
		params.AuthorizedDate, params.Pending, params.PendingTransactionID,
		params.AccountOwner, params.TransactionType, params.TransactionCode,
		params.Location, params.PaymentMeta,
	).Scan(
		&tx.ID, &tx.ProviderTransactionID, &tx.UserID, &tx.AccountID,
		&tx.Amount, &tx.ISOCurrencyCode, pq.Array(&tx.Category), &tx.CategoryID,
		&tx.MerchantName, &tx.Name, &tx.OriginalDescription, &tx.Date,
		&tx.AuthorizedDate, &tx.Pending, &tx.PendingTransactionID, &tx.AccountOwner,
		&tx.TransactionType, &tx.TransactionCode, &tx.Location, &tx.PaymentMeta,
		&tx.AICategory, &tx.AISentiment, pq.Array(&tx.AITags), &tx.AINotes,
		&tx.CreatedAt, &tx.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return &tx, inserted, nil
}

// GetByProviderID retrieves a transaction by the provider-assigned ID
func (r *TransactionRepository) GetByProviderID(ctx context.Context, providerTransactionID string) (*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE provider_transaction_id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, providerTransactionID))
	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// GetByID retrieves a transaction owned by the user
func (r *TransactionRepository) GetByID(ctx context.Context, id, userID int64) (*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND user_id = $2`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// DeleteByProviderID hard-removes a transaction. Zero rows affected is not an
// error; removals must stay idempotent under page re-delivery.
func (r *TransactionRepository) DeleteByProviderID(ctx context.Context, providerTransactionID string, userID int64) (bool, error) {
	query := `DELETE FROM transactions WHERE provider_transaction_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, providerTransactionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// UpdateAnnotations writes the locally-authored annotation block. nil
// parameters keep the stored value; tags replace the whole set.
func (r *TransactionRepository) UpdateAnnotations(ctx context.Context, id, userID int64, params transaction.AnnotationParams) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET ai_category = COALESCE($3, ai_category),
		    ai_sentiment = COALESCE($4, ai_sentiment),
		    ai_tags = COALESCE($5, ai_tags),
		    ai_notes = COALESCE($6, ai_notes),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING` + transactionColumns

	var tags any
	if params.Tags != nil {
		tags = pq.Array(params.Tags)
	}

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		id, userID, params.Category, params.Sentiment, tags, params.Notes,
	))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update annotations: %w", err)
	}

	return tx, nil
}

// ListByUserID retrieves transactions for a user with optional filtering
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, filter transaction.Filter) ([]*transaction.Transaction, error) {
	var b strings.Builder
	b.WriteString(`SELECT` + transactionColumns + ` FROM transactions WHERE user_id = $1`)

	args := []any{userID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		b.WriteString(` AND account_id = $` + strconv.Itoa(len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		b.WriteString(` AND date >= $` + strconv.Itoa(len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		b.WriteString(` AND date <= $` + strconv.Itoa(len(args)))
	}
	if filter.Pending != nil {
		args = append(args, *filter.Pending)
		b.WriteString(` AND pending = $` + strconv.Itoa(len(args)))
	}

	b.WriteString(` ORDER BY date DESC, id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		b.WriteString(` OFFSET $` + strconv.Itoa(len(args)))
	}

	return r.list(ctx, b.String(), args...)
}

// ListUnannotated retrieves recent transactions without an AI category
func (r *TransactionRepository) ListUnannotated(ctx context.Context, userID int64, since time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND ai_category IS NULL AND date >= $2
		ORDER BY date DESC, id DESC
		LIMIT $3`

	return r.list(ctx, query, userID, since, limit)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
