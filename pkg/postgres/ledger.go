package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/EbbDrop/Perma/pkg/db"
)

// FindCount retrieves the committed ledger row for a (performer, type)
// pair, or nil when the pair has never been touched. Deltas staged in this
// transaction are not visible; that is what keeps the updater's contract
// honest.
func (s *txStore) FindCount(ctx context.Context, performerID, typeID string) (*db.PerformingCount, error) {
	var c db.PerformingCount
	err := s.tx.QueryRow(ctx, `
		SELECT id, user_id, type_id, count FROM performing_counts
		WHERE user_id = $1 AND type_id = $2
		LIMIT 1
	`, performerID, typeID).Scan(&c.ID, &c.UserID, &c.TypeID, &c.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query performing count: %w", err)
	}
	return &c, nil
}

// ListCountsByType retrieves all committed ledger rows for a type
func (s *txStore) ListCountsByType(ctx context.Context, typeID string) ([]db.PerformingCount, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, type_id, count FROM performing_counts
		WHERE type_id = $1
		ORDER BY user_id
	`, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performing counts: %w", err)
	}
	defer rows.Close()

	var counts []db.PerformingCount
	for rows.Next() {
		var c db.PerformingCount
		if err := rows.Scan(&c.ID, &c.UserID, &c.TypeID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan performing count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performing counts: %w", err)
	}
	return counts, nil
}

// ApplyCountDelta stages a signed delta for the pair; see db.Store for the
// once-per-pair contract
func (s *txStore) ApplyCountDelta(ctx context.Context, performerID, typeID string, delta int) error {
	return s.ledger.ApplyDelta(ctx, performerID, typeID, delta)
}

// InsertCount writes a staged ledger insert; called by the updater on flush
func (s *txStore) InsertCount(ctx context.Context, row db.PerformingCount) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO performing_counts (id, user_id, type_id, count)
		VALUES ($1, $2, $3, $4)
	`, row.ID, row.UserID, row.TypeID, row.Count)
	if err != nil {
		return fmt.Errorf("failed to insert performing count: %w", err)
	}
	return nil
}

// SetCount writes a staged absolute count; called by the updater on flush
func (s *txStore) SetCount(ctx context.Context, id string, count int) error {
	_, err := s.tx.Exec(ctx, `UPDATE performing_counts SET count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return fmt.Errorf("failed to update performing count: %w", err)
	}
	return nil
}
