package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"arca/internal/domain/annotation"
	"arca/internal/domain/institution"
	"arca/internal/domain/item"
	"arca/internal/domain/notification"
	"arca/internal/domain/sync"
	"arca/internal/infrastructure/provider"
)

// ItemSyncJob implements the Job interface for syncing one linked item.
// After a successful sync it runs the annotation pass for the item's owner.
// When the provider reports the item's consent has lapsed, the item is
// deactivated and the owner gets a relink push.
type ItemSyncJob struct {
	item          *item.Item
	orchestrator  *sync.Orchestrator
	items         item.Repository
	institutions  institution.Repository
	annotations   *annotation.Service
	notifications *notification.Service
}

// NewItemSyncJob creates a sync job for one item. annotations and
// notifications may be nil; the corresponding follow-up step is skipped.
func NewItemSyncJob(
	it *item.Item,
	orchestrator *sync.Orchestrator,
	items item.Repository,
	institutions institution.Repository,
	annotations *annotation.Service,
	notifications *notification.Service,
) *ItemSyncJob {
	return &ItemSyncJob{
		item:          it,
		orchestrator:  orchestrator,
		items:         items,
		institutions:  institutions,
		annotations:   annotations,
		notifications: notifications,
	}
}

// Execute runs one sync cycle for the item.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	result, err := j.orchestrator.RunSync(ctx, j.item.ID)
	if errors.Is(err, sync.ErrSyncInProgress) {
		// Another invocation (manual trigger, overlapping schedule) holds the
		// lease. Not a failure.
		log.Printf("Item %d: sync already in progress, skipping", j.item.ID)
		return nil
	}
	if err != nil {
		if provider.IsLoginRequired(err) {
			j.handleRelinkRequired(ctx)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	if result.HasMore {
		log.Printf("Item %d: page budget reached, remaining pages picked up next run", j.item.ID)
	}

	if j.annotations != nil && result.Added+result.Modified > 0 {
		if _, err := j.annotations.AnnotateRecent(ctx, j.item.UserID); err != nil {
			// Annotation failures never fail the sync; the next pass retries.
			log.Printf("Item %d: annotation pass failed: %v", j.item.ID, err)
		}
	}

	return nil
}

func (j *ItemSyncJob) handleRelinkRequired(ctx context.Context) {
	log.Printf("Item %d: provider requires relink, deactivating", j.item.ID)

	if err := j.items.Deactivate(ctx, j.item.ID, j.item.UserID); err != nil {
		log.Printf("Item %d: failed to deactivate: %v", j.item.ID, err)
	}

	if j.notifications == nil {
		return
	}

	name := "your bank"
	if ins, err := j.institutions.GetByProviderID(ctx, j.item.InstitutionID); err == nil && ins != nil {
		name = ins.Name
	}

	if err := j.notifications.SendRelinkRequired(ctx, j.item.UserID, j.item.ID, name); err != nil {
		log.Printf("Item %d: failed to send relink notification: %v", j.item.ID, err)
	}
}

// Subject returns the item ID associated with this job
func (j *ItemSyncJob) Subject() string {
	return fmt.Sprintf("item %d", j.item.ID)
}

// Description returns a human-readable description of the job
func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Transaction sync for item %d (user %d)", j.item.ID, j.item.UserID)
}
