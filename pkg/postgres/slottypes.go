package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/EbbDrop/Perma/pkg/db"
)

// InsertSlotType inserts a new slot type record
func (s *txStore) InsertSlotType(ctx context.Context, slotType db.SlotType) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO slot_types (id, group_id, name) VALUES ($1, $2, $3)
	`, slotType.ID, slotType.GroupID, slotType.Name)
	if err != nil {
		return fmt.Errorf("failed to insert slot type: %w", err)
	}
	return nil
}

// GetSlotType retrieves a slot type by id
func (s *txStore) GetSlotType(ctx context.Context, id string) (db.SlotType, error) {
	var t db.SlotType
	err := s.tx.QueryRow(ctx, `
		SELECT id, group_id, name FROM slot_types WHERE id = $1
	`, id).Scan(&t.ID, &t.GroupID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.SlotType{}, fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	if err != nil {
		return db.SlotType{}, fmt.Errorf("failed to query slot type: %w", err)
	}
	return t, nil
}

// ListSlotTypesByGroup retrieves all slot types in a group
func (s *txStore) ListSlotTypesByGroup(ctx context.Context, groupID string) ([]db.SlotType, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, group_id, name FROM slot_types
		WHERE group_id = $1
		ORDER BY name, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot types: %w", err)
	}
	defer rows.Close()

	var types []db.SlotType
	for rows.Next() {
		var t db.SlotType
		if err := rows.Scan(&t.ID, &t.GroupID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan slot type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot types: %w", err)
	}
	return types, nil
}

// RenameSlotType changes the name of a slot type
func (s *txStore) RenameSlotType(ctx context.Context, id, name string) error {
	tag, err := s.tx.Exec(ctx, `UPDATE slot_types SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename slot type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	return nil
}

// DeleteSlotType deletes a slot type record. Callers clear slot references
// and ledger rows first; see services.DeleteSlotType.
func (s *txStore) DeleteSlotType(ctx context.Context, id string) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM slot_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	return nil
}

// ClearSlotTypeRefs unsets the type reference on all slots of the group
// pointing at the given type
func (s *txStore) ClearSlotTypeRefs(ctx context.Context, groupID, typeID string) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE slots SET type_id = NULL WHERE group_id = $1 AND type_id = $2
	`, groupID, typeID)
	if err != nil {
		return fmt.Errorf("failed to clear slot type references: %w", err)
	}
	return nil
}

// DeleteCountsByType deletes every ledger row referencing the given type
func (s *txStore) DeleteCountsByType(ctx context.Context, typeID string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM performing_counts WHERE type_id = $1`, typeID)
	if err != nil {
		return fmt.Errorf("failed to delete performing counts: %w", err)
	}
	return nil
}
