package sync

import (
	"context"
	"fmt"
	"time"

	"arca/internal/domain/item"
)

// CursorManager tracks per-item sync cursors.
//
// Invariant: Advance is called only after the corresponding page's account and
// transaction mutations have been durably committed. A crash between
// committing mutations and advancing the cursor makes the next sync re-fetch
// the same page, which the reconcilers absorb idempotently.
type CursorManager struct {
	items item.Repository
}

// NewCursorManager creates a cursor manager backed by the item repository.
func NewCursorManager(items item.Repository) *CursorManager {
	return &CursorManager{items: items}
}

// Current returns the stored cursor for an item; nil means never synced.
func (m *CursorManager) Current(ctx context.Context, itemID int64) (*string, error) {
	it, err := m.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %d: %w", itemID, err)
	}
	if it == nil {
		return nil, ErrItemNotFound
	}
	return it.Cursor, nil
}

// Advance persists newCursor and stamps last-sync.
func (m *CursorManager) Advance(ctx context.Context, itemID int64, newCursor string, _ bool) error {
	if err := m.items.AdvanceCursor(ctx, itemID, newCursor, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to advance cursor for item %d: %w", itemID, err)
	}
	return nil
}
