package sync

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"arca/internal/domain/item"
	"arca/internal/infrastructure/provider"
)

var syncTracer = otel.Tracer("arca/sync")

const (
	// DefaultMaxPages bounds pages per invocation so one call cannot run
	// unbounded; the result carries HasMore=true when the bound is hit.
	DefaultMaxPages = 10

	// DefaultLockTTL is generous enough to cover a full page-bounded cycle.
	// An expired lease can be taken over by a later invocation.
	DefaultLockTTL = 5 * time.Minute
)

// Orchestrator drives one full sync cycle for one linked item:
// fetch delta, reconcile accounts, reconcile transactions, advance cursor,
// looping while the provider reports more pages.
type Orchestrator struct {
	items        item.Repository
	client       provider.ClientInterface
	accounts     *AccountReconciler
	transactions *TransactionReconciler
	cursors      *CursorManager
	locks        Locker
	maxPages     int
	lockTTL      time.Duration
}

// NewOrchestrator creates a sync orchestrator. maxPages and lockTTL fall back
// to defaults when zero.
func NewOrchestrator(
	items item.Repository,
	client provider.ClientInterface,
	accounts *AccountReconciler,
	transactions *TransactionReconciler,
	cursors *CursorManager,
	locks Locker,
	maxPages int,
	lockTTL time.Duration,
) *Orchestrator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Orchestrator{
		items:        items,
		client:       client,
		accounts:     accounts,
		transactions: transactions,
		cursors:      cursors,
		locks:        locks,
		maxPages:     maxPages,
		lockTTL:      lockTTL,
	}
}

// RunSync performs one page-bounded sync cycle for itemID.
//
// Failure contract: ErrItemNotFound / ErrItemInactive are terminal for this
// invocation; ErrSyncInProgress means a concurrent invocation holds the item
// lease; *ProviderError and *StoreError are retryable and guarantee the
// cursor was not advanced past unapplied data. The unit of atomicity is one
// page: a page's mutations commit before its cursor is persisted, and
// re-fetching an already-applied page is idempotent.
func (o *Orchestrator) RunSync(ctx context.Context, itemID int64) (*Result, error) {
	ctx, span := syncTracer.Start(ctx, "sync.run",
		trace.WithAttributes(attribute.Int64("item.id", itemID)))
	defer span.End()

	it, err := o.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, o.fail(span, &StoreError{Err: err})
	}
	if it == nil {
		return nil, o.fail(span, ErrItemNotFound)
	}
	if !it.IsActive {
		return nil, o.fail(span, ErrItemInactive)
	}

	owner := uuid.NewString()
	acquired, err := o.locks.Acquire(ctx, itemID, owner, o.lockTTL)
	if err != nil {
		return nil, o.fail(span, &StoreError{Err: err})
	}
	if !acquired {
		return nil, o.fail(span, ErrSyncInProgress)
	}
	defer func() {
		// Release with a detached context so shutdown mid-cycle still frees
		// the lease; an expired lease is reclaimed by TTL anyway.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.locks.Release(releaseCtx, itemID, owner); err != nil {
			log.Printf("Item %d: failed to release sync lock: %v", itemID, err)
		}
	}()

	result := &Result{ItemID: itemID}
	cursor := it.Cursor

	for page := 0; page < o.maxPages; page++ {
		delta, err := o.client.SyncTransactions(ctx, it.AccessToken, cursor)
		if err != nil {
			return nil, o.fail(span, &ProviderError{Err: err})
		}

		// Accounts before transactions: transaction reconciliation needs
		// resolved account records for newly seen accounts.
		accountsResp, err := o.client.GetAccounts(ctx, it.AccessToken)
		if err != nil {
			return nil, o.fail(span, &ProviderError{Err: err})
		}
		accSummary, err := o.accounts.Reconcile(ctx, accountsResp.Accounts, it.UserID, it.ID, it.InstitutionID)
		if err != nil {
			return nil, o.fail(span, &StoreError{Err: err})
		}

		txSummary, err := o.transactions.Reconcile(ctx, delta, it.UserID)
		if err != nil {
			return nil, o.fail(span, &StoreError{Err: err})
		}

		// Mutations for this page are committed; only now may the cursor move.
		if err := o.cursors.Advance(ctx, itemID, delta.NextCursor, delta.HasMore); err != nil {
			return nil, o.fail(span, &StoreError{Err: err})
		}

		result.AccountsCreated += accSummary.Created
		result.AccountsUpdated += accSummary.Updated
		result.Added += txSummary.Added
		result.Modified += txSummary.Modified
		result.Removed += txSummary.Removed
		result.Skipped += txSummary.Skipped
		result.Pages++
		result.HasMore = delta.HasMore

		if !delta.HasMore {
			break
		}
		next := delta.NextCursor
		cursor = &next
	}

	span.SetAttributes(
		attribute.Int("sync.pages", result.Pages),
		attribute.Int("sync.added", result.Added),
		attribute.Int("sync.modified", result.Modified),
		attribute.Int("sync.removed", result.Removed),
		attribute.Bool("sync.has_more", result.HasMore),
	)

	log.Printf("Item %d: sync completed - pages=%d, added=%d, modified=%d, removed=%d, skipped=%d, hasMore=%v",
		itemID, result.Pages, result.Added, result.Modified, result.Removed, result.Skipped, result.HasMore)

	return result, nil
}

func (o *Orchestrator) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
