package sync

import (
	"context"
	"fmt"
	"log"

	"arca/internal/domain/account"
	"arca/internal/infrastructure/provider"
)

// AccountReconciler merges provider account snapshots into stored account
// records. It only ever writes provider-sourced fields and never deletes an
// account; removal is a separate, user-driven action outside the engine.
type AccountReconciler struct {
	accounts account.Repository
}

// NewAccountReconciler creates a new account reconciler.
func NewAccountReconciler(accounts account.Repository) *AccountReconciler {
	return &AccountReconciler{accounts: accounts}
}

// Reconcile upserts each provider account by provider account ID.
// The first store failure aborts the batch and is reported to the caller;
// per-account writes are individually atomic.
func (r *AccountReconciler) Reconcile(
	ctx context.Context,
	providerAccounts []provider.Account,
	userID, itemID int64,
	institutionID string,
) (*AccountSummary, error) {
	summary := &AccountSummary{}

	for i := range providerAccounts {
		created, err := r.reconcileAccount(ctx, &providerAccounts[i], userID, itemID, institutionID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", providerAccounts[i].AccountID, err)
		}
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	log.Printf("Item %d: account reconcile complete - created=%d, updated=%d",
		itemID, summary.Created, summary.Updated)

	return summary, nil
}

func (r *AccountReconciler) reconcileAccount(
	ctx context.Context,
	apiAccount *provider.Account,
	userID, itemID int64,
	institutionID string,
) (created bool, err error) {
	exists, err := r.accounts.Exists(ctx, apiAccount.AccountID)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	params := account.UpsertParams{
		ProviderAccountID:  apiAccount.AccountID,
		UserID:             userID,
		ItemID:             itemID,
		InstitutionID:      institutionID,
		Name:               apiAccount.Name,
		OfficialName:       apiAccount.OfficialName,
		Type:               apiAccount.Type,
		Subtype:            apiAccount.Subtype,
		Mask:               apiAccount.Mask,
		AvailableBalance:   apiAccount.Balances.Available,
		CurrentBalance:     apiAccount.Balances.Current,
		LimitBalance:       apiAccount.Balances.Limit,
		ISOCurrencyCode:    apiAccount.Balances.ISOCurrencyCode,
		VerificationStatus: apiAccount.VerificationStatus,
	}
	if err := params.Validate(); err != nil {
		return false, fmt.Errorf("invalid account snapshot: %w", err)
	}

	if _, err := r.accounts.Upsert(ctx, params); err != nil {
		return false, fmt.Errorf("failed to upsert account: %w", err)
	}

	return !exists, nil
}
