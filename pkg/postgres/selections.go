package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/EbbDrop/Perma/pkg/db"
)

func collectSelections(rows pgx.Rows) ([]db.SelectedSlot, error) {
	defer rows.Close()

	var selections []db.SelectedSlot
	for rows.Next() {
		var sel db.SelectedSlot
		if err := rows.Scan(&sel.ID, &sel.UserID, &sel.SlotID); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selections: %w", err)
	}
	return selections, nil
}

// InsertSelection inserts a new selection record
func (s *txStore) InsertSelection(ctx context.Context, selection db.SelectedSlot) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO selected_slots (id, user_id, slot_id) VALUES ($1, $2, $3)
	`, selection.ID, selection.UserID, selection.SlotID)
	if err != nil {
		return fmt.Errorf("failed to insert selection: %w", err)
	}
	return nil
}

// ListSelectionsBySlot retrieves a slot's selections in creation order
func (s *txStore) ListSelectionsBySlot(ctx context.Context, slotID string) ([]db.SelectedSlot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, slot_id FROM selected_slots
		WHERE slot_id = $1
		ORDER BY created_at, id
	`, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections by slot: %w", err)
	}
	return collectSelections(rows)
}

// ListSelectionsByUser retrieves a user's selections in creation order
func (s *txStore) ListSelectionsByUser(ctx context.Context, userID string) ([]db.SelectedSlot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, slot_id FROM selected_slots
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections by user: %w", err)
	}
	return collectSelections(rows)
}

// FindSelections retrieves all selections for a (user, slot) pair. The
// schema does not enforce uniqueness, so duplicates are possible.
func (s *txStore) FindSelections(ctx context.Context, userID, slotID string) ([]db.SelectedSlot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, slot_id FROM selected_slots
		WHERE user_id = $1 AND slot_id = $2
	`, userID, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	return collectSelections(rows)
}

// UserHasSelection reports whether the user has selected any slot
func (s *txStore) UserHasSelection(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.tx.QueryRow(ctx, `
		SELECT 1 FROM selected_slots WHERE user_id = $1 LIMIT 1
	`, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query selection existence: %w", err)
	}
	return true, nil
}

// DeleteSelection deletes a selection record
func (s *txStore) DeleteSelection(ctx context.Context, id string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM selected_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}
	return nil
}

// DeleteSelectionsBySlot deletes every selection referencing the slot
func (s *txStore) DeleteSelectionsBySlot(ctx context.Context, slotID string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM selected_slots WHERE slot_id = $1`, slotID)
	if err != nil {
		return fmt.Errorf("failed to delete selections: %w", err)
	}
	return nil
}
