package sync

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"arca/internal/domain/transaction"
	"arca/internal/infrastructure/provider"
)

func coffeeDelta() *provider.SyncResponse {
	return &provider.SyncResponse{
		Added: []provider.Transaction{
			{
				TransactionID: "t1",
				AccountID:     "acc_1",
				Amount:        decimal.RequireFromString("-12.50"),
				Name:          "Coffee",
				Category:      []string{"Food and Drink", "Coffee Shop"},
				DateString:    "2026-08-20",
			},
		},
		NextCursor: "cursor-1",
	}
}

func TestTransactionReconciler_AddedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	summary, err := reconciler.Reconcile(ctx, coffeeDelta(), 1)
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if summary.Added != 1 {
		t.Errorf("first pass added = %d, want 1", summary.Added)
	}

	// Same page delivered again (at-least-once): no duplicate row.
	summary, err = reconciler.Reconcile(ctx, coffeeDelta(), 1)
	if err != nil {
		t.Fatalf("Reconcile() second pass failed: %v", err)
	}
	if summary.Added != 0 || summary.Modified != 1 {
		t.Errorf("second pass = added %d, modified %d; want 0, 1", summary.Added, summary.Modified)
	}
	if transactions.count() != 1 {
		t.Errorf("store holds %d transactions, want 1", transactions.count())
	}

	tx, _ := transactions.GetByProviderID(ctx, "t1")
	if !tx.Amount.Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("amount = %s, want -12.50", tx.Amount)
	}
}

func TestTransactionReconciler_ModifiedPreservesAnnotations(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	if _, err := reconciler.Reconcile(ctx, coffeeDelta(), 1); err != nil {
		t.Fatalf("initial Reconcile() failed: %v", err)
	}

	// Annotation subsystem writes its block.
	seeded, _ := transactions.GetByProviderID(ctx, "t1")
	if _, err := transactions.UpdateAnnotations(ctx, seeded.ID, 1, transaction.AnnotationParams{
		Category:  strPtr("coffee"),
		Sentiment: strPtr("positive"),
		Tags:      []string{"favorite"},
		Notes:     strPtr("morning ritual"),
	}); err != nil {
		t.Fatalf("UpdateAnnotations() failed: %v", err)
	}

	delta := &provider.SyncResponse{
		Modified: []provider.Transaction{
			{
				TransactionID: "t1",
				AccountID:     "acc_1",
				Amount:        decimal.RequireFromString("-15.00"),
				Name:          "Coffee Plus",
				DateString:    "2026-08-20",
			},
		},
		NextCursor: "cursor-2",
	}

	summary, err := reconciler.Reconcile(ctx, delta, 1)
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if summary.Modified != 1 {
		t.Errorf("modified = %d, want 1", summary.Modified)
	}

	tx, _ := transactions.GetByProviderID(ctx, "t1")
	if !tx.Amount.Equal(decimal.RequireFromString("-15.00")) {
		t.Errorf("amount = %s, want -15.00", tx.Amount)
	}
	if tx.Name != "Coffee Plus" {
		t.Errorf("name = %q, want Coffee Plus", tx.Name)
	}
	if !reflect.DeepEqual(tx.AITags, []string{"favorite"}) {
		t.Errorf("ai_tags = %v, want [favorite]", tx.AITags)
	}
	if tx.AICategory == nil || *tx.AICategory != "coffee" {
		t.Errorf("ai_category = %v, want coffee", tx.AICategory)
	}
	if tx.AISentiment == nil || *tx.AISentiment != "positive" {
		t.Errorf("ai_sentiment = %v, want positive", tx.AISentiment)
	}
	if tx.AINotes == nil || *tx.AINotes != "morning ritual" {
		t.Errorf("ai_notes = %v, want unchanged", tx.AINotes)
	}
}

func TestTransactionReconciler_ModifiedForUnknownIDIsAdded(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	delta := &provider.SyncResponse{
		Modified: []provider.Transaction{
			{
				TransactionID: "t9",
				AccountID:     "acc_1",
				Amount:        decimal.RequireFromString("4.20"),
				Name:          "Refund",
				DateString:    "2026-08-19",
			},
		},
	}

	summary, err := reconciler.Reconcile(ctx, delta, 1)
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if summary.Added != 1 || summary.Modified != 0 {
		t.Errorf("summary = added %d, modified %d; want 1, 0", summary.Added, summary.Modified)
	}
}

func TestTransactionReconciler_UnknownAccountSkipped(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo() // no accounts at all
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	summary, err := reconciler.Reconcile(ctx, coffeeDelta(), 1)
	if err != nil {
		t.Fatalf("Reconcile() failed, want skip: %v", err)
	}
	if summary.Skipped != 1 || summary.Added != 0 {
		t.Errorf("summary = skipped %d, added %d; want 1, 0", summary.Skipped, summary.Added)
	}
	if transactions.count() != 0 {
		t.Errorf("store holds %d transactions, want 0", transactions.count())
	}
}

func TestTransactionReconciler_RemovedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	if _, err := reconciler.Reconcile(ctx, coffeeDelta(), 1); err != nil {
		t.Fatalf("seed Reconcile() failed: %v", err)
	}

	removal := &provider.SyncResponse{
		Removed: []provider.RemovedTransaction{{TransactionID: "t1"}},
	}

	summary, err := reconciler.Reconcile(ctx, removal, 1)
	if err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}
	if summary.Removed != 1 {
		t.Errorf("removed = %d, want 1", summary.Removed)
	}

	// Retry of the same removal: absence is not an error.
	summary, err = reconciler.Reconcile(ctx, removal, 1)
	if err != nil {
		t.Fatalf("Reconcile() retry failed: %v", err)
	}
	if summary.Removed != 0 {
		t.Errorf("retry removed = %d, want 0", summary.Removed)
	}
}

func TestTransactionReconciler_RemovalWinsWithinOnePage(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	reconciler := NewTransactionReconciler(accounts, transactions)

	// Pathological page: t1 appears in added and removed at once.
	delta := coffeeDelta()
	delta.Removed = []provider.RemovedTransaction{{TransactionID: "t1"}}

	if _, err := reconciler.Reconcile(ctx, delta, 1); err != nil {
		t.Fatalf("Reconcile() failed: %v", err)
	}

	tx, _ := transactions.GetByProviderID(ctx, "t1")
	if tx != nil {
		t.Error("t1 still present; removal must win within one page")
	}
}

func TestTransactionReconciler_StoreFailureAbortsBatch(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccountRepo()
	accounts.seed("acc_1", 1)
	transactions := newFakeTransactionRepo()
	transactions.upsertErr = errors.New("deadlock detected")
	reconciler := NewTransactionReconciler(accounts, transactions)

	if _, err := reconciler.Reconcile(ctx, coffeeDelta(), 1); err == nil {
		t.Fatal("Reconcile() expected error on store failure, got nil")
	}
}
