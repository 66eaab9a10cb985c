package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// AddSlotType creates a new, unnamed slot type in the acting admin's group
func AddSlotType(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) (db.SlotType, error) {
	if err := requireAdmin(actor); err != nil {
		return db.SlotType{}, err
	}

	slotType := db.SlotType{ID: uuid.New().String(), GroupID: actor.GroupID}
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		return s.InsertSlotType(ctx, slotType)
	})
	if err != nil {
		return db.SlotType{}, fmt.Errorf("failed to add slot type: %w", err)
	}

	logger.Info("Added slot type", zap.String("type_id", slotType.ID))
	return slotType, nil
}

// RenameSlotType changes the name of a slot type in the acting admin's group
func RenameSlotType(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, typeID, name string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slotType, err := s.GetSlotType(ctx, typeID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slotType.GroupID); err != nil {
			return err
		}
		return s.RenameSlotType(ctx, typeID, name)
	})
	if err != nil {
		return fmt.Errorf("failed to rename slot type: %w", err)
	}

	logger.Info("Renamed slot type", zap.String("type_id", typeID), zap.String("name", name))
	return nil
}

// DeleteSlotType removes a slot type and everything hanging off it: slots of
// the type become untyped regardless of state, and the type's ledger rows are
// dropped. Fairness history for the type is gone afterwards.
func DeleteSlotType(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, typeID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slotType, err := s.GetSlotType(ctx, typeID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slotType.GroupID); err != nil {
			return err
		}
		if err := s.ClearSlotTypeRefs(ctx, actor.GroupID, typeID); err != nil {
			return err
		}
		if err := s.DeleteCountsByType(ctx, typeID); err != nil {
			return err
		}
		return s.DeleteSlotType(ctx, typeID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot type: %w", err)
	}

	logger.Info("Deleted slot type", zap.String("type_id", typeID))
	return nil
}

// TransferCounts moves every ledger count from one slot type onto another,
// leaving zeroed rows behind on the source type. Each row produces one delta
// per pair, which keeps the transfer inside the ledger updater's contract; the
// two types must differ for that to hold.
func TransferCounts(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, fromID, toID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if fromID == toID {
		return fmt.Errorf("%w: cannot transfer counts onto the same type", db.ErrInvalidArgument)
	}

	var moved int
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		from, err := s.GetSlotType(ctx, fromID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, from.GroupID); err != nil {
			return err
		}
		to, err := s.GetSlotType(ctx, toID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, to.GroupID); err != nil {
			return err
		}

		counts, err := s.ListCountsByType(ctx, fromID)
		if err != nil {
			return err
		}
		for _, c := range counts {
			if err := s.ApplyCountDelta(ctx, c.UserID, fromID, -c.Count); err != nil {
				return err
			}
			if err := s.ApplyCountDelta(ctx, c.UserID, toID, c.Count); err != nil {
				return err
			}
		}
		moved = len(counts)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to transfer counts: %w", err)
	}

	logger.Info("Transferred counts",
		zap.String("from_type", fromID),
		zap.String("to_type", toID),
		zap.Int("rows", moved))
	return nil
}

// BulkEditCounts applies a list of signed ledger deltas after validating that
// every referenced user and type belongs to the acting admin's group. Entries
// are applied as given: callers sending two entries for the same
// (user, type) pair are misusing the ledger and get the documented divergence.
func BulkEditCounts(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, updates []db.CountUpdate) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		users, err := s.ListUsersByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		userIDs := make(map[string]bool, len(users))
		for _, u := range users {
			userIDs[u.ID] = true
		}

		types, err := s.ListSlotTypesByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		typeIDs := make(map[string]bool, len(types))
		for _, t := range types {
			typeIDs[t.ID] = true
		}

		for _, u := range updates {
			if !userIDs[u.UserID] {
				return fmt.Errorf("%w: user %s", db.ErrInvalidReference, u.UserID)
			}
			if !typeIDs[u.TypeID] {
				return fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, u.TypeID)
			}
			if err := s.ApplyCountDelta(ctx, u.UserID, u.TypeID, u.Delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to edit counts: %w", err)
	}

	logger.Info("Edited counts", zap.Int("updates", len(updates)))
	return nil
}
