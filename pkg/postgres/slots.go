package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/EbbDrop/Perma/pkg/db"
)

const slotColumns = `id, group_id, type_id, name, show_time, start_at, end_at, performer_id, state`

func scanSlot(row pgx.Row) (db.Slot, error) {
	var s db.Slot
	var state string
	err := row.Scan(&s.ID, &s.GroupID, &s.TypeID, &s.Name, &s.ShowTime, &s.Start, &s.End, &s.PerformerID, &state)
	if err != nil {
		return db.Slot{}, err
	}
	s.State = db.SlotState(state)
	return s, nil
}

func collectSlots(rows pgx.Rows) ([]db.Slot, error) {
	defer rows.Close()

	var slots []db.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	return slots, nil
}

func stateStrings(states []db.SlotState) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = string(st)
	}
	return out
}

// InsertSlot inserts a new slot record
func (s *txStore) InsertSlot(ctx context.Context, slot db.Slot) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO slots (id, group_id, type_id, name, show_time, start_at, end_at, performer_id, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, slot.ID, slot.GroupID, slot.TypeID, slot.Name, slot.ShowTime, slot.Start, slot.End, slot.PerformerID, string(slot.State))
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

// GetSlot retrieves a slot by id
func (s *txStore) GetSlot(ctx context.Context, id string) (db.Slot, error) {
	slot, err := scanSlot(s.tx.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM slots WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Slot{}, fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	if err != nil {
		return db.Slot{}, fmt.Errorf("failed to query slot: %w", err)
	}
	return slot, nil
}

// ListSlotsByState retrieves the group's slots in any of the given states,
// ordered by start time then creation time
func (s *txStore) ListSlotsByState(ctx context.Context, groupID string, states ...db.SlotState) ([]db.Slot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT `+slotColumns+` FROM slots
		WHERE group_id = $1 AND state = ANY($2)
		ORDER BY start_at, created_at
	`, groupID, stateStrings(states))
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	return collectSlots(rows)
}

// ListSlotsInRange retrieves the group's slots in any of the given states
// whose start falls in [from, to), ordered by start time
func (s *txStore) ListSlotsInRange(ctx context.Context, groupID string, from, to time.Time, states ...db.SlotState) ([]db.Slot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT `+slotColumns+` FROM slots
		WHERE group_id = $1 AND state = ANY($2) AND start_at >= $3 AND start_at < $4
		ORDER BY start_at, created_at
	`, groupID, stateStrings(states), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots in range: %w", err)
	}
	return collectSlots(rows)
}

// LatestUpcomingSlot retrieves the upcoming slot with the greatest start
// time, or nil when the group has none
func (s *txStore) LatestUpcomingSlot(ctx context.Context, groupID string) (*db.Slot, error) {
	slot, err := scanSlot(s.tx.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM slots
		WHERE group_id = $1 AND state = 'upcoming'
		ORDER BY start_at DESC, created_at DESC
		LIMIT 1
	`, groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest upcoming slot: %w", err)
	}
	return &slot, nil
}

// UpdateSlot applies a partial update to a slot record
func (s *txStore) UpdateSlot(ctx context.Context, id string, patch db.SlotPatch) error {
	var sets []string
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.ClearType {
		sets = append(sets, "type_id = NULL")
	} else if patch.TypeID != nil {
		add("type_id", *patch.TypeID)
	}
	if patch.ShowTime != nil {
		add("show_time", *patch.ShowTime)
	}
	if patch.Start != nil {
		add("start_at", *patch.Start)
	}
	if patch.End != nil {
		add("end_at", *patch.End)
	}
	if patch.State != nil {
		add("state", string(*patch.State))
	}
	if len(sets) == 0 {
		return nil
	}

	tag, err := s.tx.Exec(ctx, `UPDATE slots SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	return nil
}

// SetSlotPerformer sets or clears the performer of a slot
func (s *txStore) SetSlotPerformer(ctx context.Context, id string, performerID *string) error {
	tag, err := s.tx.Exec(ctx, `UPDATE slots SET performer_id = $2 WHERE id = $1`, id, performerID)
	if err != nil {
		return fmt.Errorf("failed to set slot performer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	return nil
}

// SetSlotState moves a slot to a new lifecycle state
func (s *txStore) SetSlotState(ctx context.Context, id string, state db.SlotState) error {
	tag, err := s.tx.Exec(ctx, `UPDATE slots SET state = $2 WHERE id = $1`, id, string(state))
	if err != nil {
		return fmt.Errorf("failed to set slot state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	return nil
}

// DeleteSlot deletes a slot record
func (s *txStore) DeleteSlot(ctx context.Context, id string) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	return nil
}

// DeletePublishedBefore deletes every published slot of the group starting
// before the cutoff
func (s *txStore) DeletePublishedBefore(ctx context.Context, groupID string, cutoff time.Time) error {
	_, err := s.tx.Exec(ctx, `
		DELETE FROM slots
		WHERE group_id = $1 AND state = 'published' AND start_at < $2
	`, groupID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired slots: %w", err)
	}
	return nil
}
