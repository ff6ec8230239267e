package sync

import (
	"context"
	"fmt"
	"log"

	"arca/internal/domain/account"
	"arca/internal/domain/transaction"
	"arca/internal/infrastructure/provider"
)

// TransactionReconciler applies a fetched delta (added/modified/removed) to
// the store. Added and modified entries both flow through an upsert keyed by
// provider transaction ID, which makes page application idempotent under
// at-least-once delivery and refreshes only provider-sourced fields —
// annotation fields are never part of the write.
type TransactionReconciler struct {
	accounts     account.Repository
	transactions transaction.Repository
}

// NewTransactionReconciler creates a new transaction reconciler.
func NewTransactionReconciler(accounts account.Repository, transactions transaction.Repository) *TransactionReconciler {
	return &TransactionReconciler{accounts: accounts, transactions: transactions}
}

// Reconcile applies one delta page for one user.
//
// Removals run after added/modified: when one page both reintroduces and
// removes the same ID, removal wins (usually a pending-to-posted collapse
// where the provider issued a new ID for the posted entry).
func (r *TransactionReconciler) Reconcile(
	ctx context.Context,
	delta *provider.SyncResponse,
	userID int64,
) (*TransactionSummary, error) {
	summary := &TransactionSummary{}

	// Per-page cache of provider account ID -> internal account ID.
	accountIDs := make(map[string]int64)

	for i := range delta.Added {
		if err := r.applyUpsert(ctx, &delta.Added[i], userID, accountIDs, summary); err != nil {
			return nil, err
		}
	}
	for i := range delta.Modified {
		// A modified entry absent locally is treated as added: delivery
		// order across pages need not match local state.
		if err := r.applyUpsert(ctx, &delta.Modified[i], userID, accountIDs, summary); err != nil {
			return nil, err
		}
	}

	for _, removed := range delta.Removed {
		deleted, err := r.transactions.DeleteByProviderID(ctx, removed.TransactionID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to remove transaction %s: %w", removed.TransactionID, err)
		}
		if deleted {
			summary.Removed++
		}
	}

	log.Printf("User %d: transaction reconcile complete - added=%d, modified=%d, removed=%d, skipped=%d",
		userID, summary.Added, summary.Modified, summary.Removed, summary.Skipped)

	return summary, nil
}

// applyUpsert writes one provider transaction. An unknown account is an
// expected transient state (its item may not be reconciled yet), so the entry
// is counted as skipped rather than failing the batch.
func (r *TransactionReconciler) applyUpsert(
	ctx context.Context,
	apiTx *provider.Transaction,
	userID int64,
	accountIDs map[string]int64,
	summary *TransactionSummary,
) error {
	accountID, ok := accountIDs[apiTx.AccountID]
	if !ok {
		acct, err := r.accounts.GetByProviderID(ctx, apiTx.AccountID)
		if err != nil {
			return fmt.Errorf("failed to resolve account %s: %w", apiTx.AccountID, err)
		}
		if acct == nil {
			log.Printf("Skipping transaction %s: no account with provider ID %s",
				apiTx.TransactionID, apiTx.AccountID)
			summary.Skipped++
			return nil
		}
		accountID = acct.ID
		accountIDs[apiTx.AccountID] = accountID
	}

	txDate, err := apiTx.GetDate()
	if err != nil {
		return fmt.Errorf("transaction %s: %w", apiTx.TransactionID, err)
	}
	authorizedDate, err := apiTx.GetAuthorizedDate()
	if err != nil {
		return fmt.Errorf("transaction %s: %w", apiTx.TransactionID, err)
	}

	params := transaction.UpsertParams{
		ProviderTransactionID: apiTx.TransactionID,
		UserID:                userID,
		AccountID:             accountID,
		Amount:                apiTx.Amount,
		ISOCurrencyCode:       apiTx.ISOCurrencyCode,
		Category:              apiTx.Category,
		CategoryID:            apiTx.CategoryID,
		MerchantName:          apiTx.MerchantName,
		Name:                  apiTx.Name,
		OriginalDescription:   apiTx.OriginalDescription,
		Date:                  txDate,
		AuthorizedDate:        authorizedDate,
		Pending:               apiTx.Pending,
		PendingTransactionID:  apiTx.PendingTransactionID,
		AccountOwner:          apiTx.AccountOwner,
		TransactionType:       apiTx.TransactionType,
		TransactionCode:       apiTx.TransactionCode,
		Location:              apiTx.Location,
		PaymentMeta:           apiTx.PaymentMeta,
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid transaction %s: %w", apiTx.TransactionID, err)
	}

	_, created, err := r.transactions.Upsert(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", apiTx.TransactionID, err)
	}

	if created {
		summary.Added++
	} else {
		summary.Modified++
	}
	return nil
}
