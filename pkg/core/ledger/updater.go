// Package ledger stages fairness count mutations for a single transaction.
//
// Reads go to the committed table; writes are held in memory until Flush.
// That gives every transaction one consistent snapshot to reason about, at
// the price of a sharp contract: ApplyDelta must be invoked at most once per
// (performer, type) pair per transaction. A second call for the same absent
// pair reads "no row" again and stages a second insert, leaving two divergent
// rows behind; a second call for an existing pair stages a second absolute
// write computed from the stale snapshot, losing the first delta. Callers
// that collect several deltas for one pair aggregate them in a map first and
// apply the sum once.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/EbbDrop/Perma/pkg/db"
)

// Reader provides the committed view of the performing-count table.
// Implementations must not surface writes staged through an Updater in the
// same transaction.
type Reader interface {
	FindCount(ctx context.Context, performerID, typeID string) (*db.PerformingCount, error)
}

// Writer applies staged rows to durable storage
type Writer interface {
	InsertCount(ctx context.Context, row db.PerformingCount) error
	SetCount(ctx context.Context, id string, count int) error
}

type stagedWrite struct {
	insert *db.PerformingCount

	updateID    string
	updateCount int
}

// Updater accumulates ledger writes for one transaction
type Updater struct {
	reader Reader
	staged []stagedWrite
}

// NewUpdater returns an Updater reading committed rows from r
func NewUpdater(r Reader) *Updater {
	return &Updater{reader: r}
}

// ApplyDelta adds delta to the row for (performerID, typeID), staging an
// insert with value delta when no committed row exists. See the package
// comment for the once-per-pair contract.
func (u *Updater) ApplyDelta(ctx context.Context, performerID, typeID string, delta int) error {
	row, err := u.reader.FindCount(ctx, performerID, typeID)
	if err != nil {
		return fmt.Errorf("failed to read performing count: %w", err)
	}

	if row == nil {
		u.staged = append(u.staged, stagedWrite{insert: &db.PerformingCount{
			ID:     uuid.New().String(),
			UserID: performerID,
			TypeID: typeID,
			Count:  delta,
		}})
		return nil
	}

	// Absolute value computed from the committed snapshot, matching the
	// read-then-patch shape of the original store.
	u.staged = append(u.staged, stagedWrite{
		updateID:    row.ID,
		updateCount: row.Count + delta,
	})
	return nil
}

// Pending reports how many writes are staged
func (u *Updater) Pending() int {
	return len(u.staged)
}

// Flush writes all staged rows in order and resets the updater. The caller
// runs Flush right before commit so the whole transaction stays atomic.
func (u *Updater) Flush(ctx context.Context, w Writer) error {
	for _, sw := range u.staged {
		if sw.insert != nil {
			if err := w.InsertCount(ctx, *sw.insert); err != nil {
				return fmt.Errorf("failed to insert performing count: %w", err)
			}
			continue
		}
		if err := w.SetCount(ctx, sw.updateID, sw.updateCount); err != nil {
			return fmt.Errorf("failed to update performing count: %w", err)
		}
	}
	u.staged = nil
	return nil
}
