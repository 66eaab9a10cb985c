package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// SetSelectedSlot records or withdraws the acting user's interest in an
// upcoming slot. Selecting an already selected slot is a no-op; deselecting
// removes every matching record, so duplicates that slipped in are cleaned up
// on the way out.
func SetSelectedSlot(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, slotID string, selected bool) error {
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slot, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slot.GroupID); err != nil {
			return err
		}
		if slot.State != db.SlotUpcoming {
			return fmt.Errorf("%w: slot %s is not open for selection", db.ErrInvalidReference, slotID)
		}

		existing, err := s.FindSelections(ctx, actor.ID, slotID)
		if err != nil {
			return err
		}

		if selected {
			if len(existing) > 0 {
				return nil
			}
			return s.InsertSelection(ctx, db.SelectedSlot{
				ID:     uuid.New().String(),
				UserID: actor.ID,
				SlotID: slotID,
			})
		}
		for _, sel := range existing {
			if err := s.DeleteSelection(ctx, sel.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set selection: %w", err)
	}

	logger.Debug("Set selection",
		zap.String("slot_id", slotID),
		zap.String("user_id", actor.ID),
		zap.Bool("selected", selected))
	return nil
}

// SelectedSlots retrieves the slot ids a user has selected, in selection
// order. With an empty userID the acting user's own selections are returned;
// naming another member requires admin rights.
func SelectedSlots(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, userID string) ([]string, error) {
	if userID == "" {
		userID = actor.ID
	}
	if userID != actor.ID {
		if err := requireAdmin(actor); err != nil {
			return nil, err
		}
	}

	var slotIDs []string
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		user, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, user.GroupID); err != nil {
			return err
		}

		selections, err := s.ListSelectionsByUser(ctx, userID)
		if err != nil {
			return err
		}
		slotIDs = make([]string, len(selections))
		for i, sel := range selections {
			slotIDs[i] = sel.SlotID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	return slotIDs, nil
}

// SetNote stores the acting user's availability note. The note signals the
// admins that the member has filled in their availability; PublishWeek clears
// all notes for the next round.
func SetNote(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, note string) error {
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		return s.SetUserNote(ctx, actor.ID, &note)
	})
	if err != nil {
		return fmt.Errorf("failed to set note: %w", err)
	}

	logger.Debug("Set note", zap.String("user_id", actor.ID))
	return nil
}

// Note retrieves the acting user's current availability note, or nil when none
// is set
func Note(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) (*string, error) {
	var note *string
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		user, err := s.GetUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		note = user.Note
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note: %w", err)
	}
	return note, nil
}
