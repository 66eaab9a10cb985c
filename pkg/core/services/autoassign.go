package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/core/assign"
	"github.com/EbbDrop/Perma/pkg/db"
)

// AutoAssignResult summarizes one auto-assignment pass
type AutoAssignResult struct {
	Assigned int
	Skipped  int
}

// AutoAssign picks performers for the group's upcoming slots from the users
// who selected them, preferring whoever has performed the slot's type least.
// With replace false, slots that already have a performer are left alone.
// Assignments to upcoming slots are provisional, so the ledger is not touched;
// counts move only when the week is published.
func AutoAssign(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, replace bool) (*AutoAssignResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	logger.Debug("Starting auto-assignment", zap.Bool("replace", replace))

	var result AutoAssignResult
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slots, err := s.ListSlotsByState(ctx, actor.GroupID, db.SlotUpcoming)
		if err != nil {
			return err
		}

		types, err := s.ListSlotTypesByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		counts := make(map[string]map[string]int, len(types))
		for _, t := range types {
			rows, err := s.ListCountsByType(ctx, t.ID)
			if err != nil {
				return err
			}
			byUser := make(map[string]int, len(rows))
			for _, row := range rows {
				byUser[row.UserID] = row.Count
			}
			counts[t.ID] = byUser
		}

		input := assign.Input{
			Slots:   make([]assign.Slot, 0, len(slots)),
			Counts:  counts,
			Replace: replace,
		}
		for _, slot := range slots {
			selections, err := s.ListSelectionsBySlot(ctx, slot.ID)
			if err != nil {
				return err
			}
			selectorIDs := make([]string, len(selections))
			for i, sel := range selections {
				selectorIDs[i] = sel.UserID
			}
			input.Slots = append(input.Slots, assign.Slot{
				ID:          slot.ID,
				TypeID:      slot.TypeID,
				PerformerID: slot.PerformerID,
				SelectorIDs: selectorIDs,
			})
		}

		assignments := assign.Run(input)
		for _, a := range assignments {
			performerID := a.PerformerID
			if err := s.SetSlotPerformer(ctx, a.SlotID, &performerID); err != nil {
				return err
			}
		}

		result.Assigned = len(assignments)
		result.Skipped = len(slots) - len(assignments)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-assign: %w", err)
	}

	logger.Info("Auto-assignment finished",
		zap.Int("assigned", result.Assigned),
		zap.Int("skipped", result.Skipped))
	return &result, nil
}
