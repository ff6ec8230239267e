package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LockRepository implements the sync.Locker interface with a lease row per
// item. The insert-or-take-over statement is a single atomic upsert, so two
// concurrent acquirers can never both win: the conditional update only fires
// when the existing lease has expired.
type LockRepository struct {
	db *DB
}

// NewLockRepository creates a new PostgreSQL lock repository
func NewLockRepository(db *DB) *LockRepository {
	return &LockRepository{db: db}
}

// Acquire attempts to take the lease for itemID. Returns false without
// blocking when another owner holds an unexpired lease.
func (r *LockRepository) Acquire(ctx context.Context, itemID int64, owner string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO sync_locks (item_id, owner, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		ON CONFLICT (item_id)
		DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at,
			acquired_at = NOW()
		WHERE sync_locks.expires_at < NOW()
		RETURNING item_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, itemID, owner, int64(ttl.Seconds())).Scan(&id)
	if err == sql.ErrNoRows {
		// Conflict row exists and its lease has not expired.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}

	return true, nil
}

// Release frees the lease if owner still holds it. Releasing a lease taken
// over by someone else is a no-op, not an error.
func (r *LockRepository) Release(ctx context.Context, itemID int64, owner string) error {
	query := `DELETE FROM sync_locks WHERE item_id = $1 AND owner = $2`

	if _, err := r.db.ExecContext(ctx, query, itemID, owner); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}

	return nil
}
