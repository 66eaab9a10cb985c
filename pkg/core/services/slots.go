package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// NewUpcomingSlot creates a blank upcoming slot. It starts where the group's
// latest upcoming slot ends, or today at 08:00 when the schedule is empty, and
// runs for one hour.
func NewUpcomingSlot(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, now time.Time, loc *time.Location) (db.Slot, error) {
	if err := requireAdmin(actor); err != nil {
		return db.Slot{}, err
	}

	var slot db.Slot
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		latest, err := s.LatestUpcomingSlot(ctx, actor.GroupID)
		if err != nil {
			return err
		}

		var start time.Time
		if latest != nil {
			start = latest.End
		} else {
			local := now.In(loc)
			start = time.Date(local.Year(), local.Month(), local.Day(), 8, 0, 0, 0, loc)
		}

		slot = db.Slot{
			ID:       uuid.New().String(),
			GroupID:  actor.GroupID,
			ShowTime: true,
			Start:    start,
			End:      start.Add(time.Hour),
			State:    db.SlotUpcoming,
		}
		return s.InsertSlot(ctx, slot)
	})
	if err != nil {
		return db.Slot{}, fmt.Errorf("failed to create slot: %w", err)
	}

	logger.Info("Created upcoming slot",
		zap.String("slot_id", slot.ID),
		zap.Time("start", slot.Start))
	return slot, nil
}

// UpdateSlot applies a partial update to an upcoming or hidden slot. Times are
// kept ordered by clamping: moving the start past the end drags the end along,
// and moving the end before the stored start drags the start along. State may
// only switch between upcoming and hidden here; publishing goes through
// PublishWeek.
func UpdateSlot(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, slotID string, patch db.SlotPatch) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if patch.State != nil && *patch.State == db.SlotPublished {
		return fmt.Errorf("%w: slots cannot be published directly", db.ErrInvalidArgument)
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slot, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slot.GroupID); err != nil {
			return err
		}
		if slot.State == db.SlotPublished {
			return fmt.Errorf("%w: slot %s is published", db.ErrInvalidReference, slotID)
		}
		if patch.TypeID != nil && !patch.ClearType {
			slotType, err := s.GetSlotType(ctx, *patch.TypeID)
			if err != nil {
				return err
			}
			if err := inGroup(actor, slotType.GroupID); err != nil {
				return err
			}
		}

		// Clamp in two steps. The start clamp may rewrite the patched end;
		// the end clamp compares against the stored start on purpose, so a
		// lone end before the current start pulls the start back to it.
		if patch.Start != nil && slot.End.Before(*patch.Start) {
			end := *patch.Start
			patch.End = &end
		}
		if patch.End != nil && patch.End.Before(slot.Start) {
			start := *patch.End
			patch.Start = &start
		}

		return s.UpdateSlot(ctx, slotID, patch)
	})
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}

	logger.Info("Updated slot", zap.String("slot_id", slotID))
	return nil
}

// DeleteSlot removes an upcoming or hidden slot and its selections. Published
// slots cannot be deleted; they age out through PublishWeek.
func DeleteSlot(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, slotID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slot, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slot.GroupID); err != nil {
			return err
		}
		if slot.State == db.SlotPublished {
			return fmt.Errorf("%w: slot %s is published", db.ErrInvalidReference, slotID)
		}
		if err := s.DeleteSelectionsBySlot(ctx, slotID); err != nil {
			return err
		}
		return s.DeleteSlot(ctx, slotID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	logger.Info("Deleted slot", zap.String("slot_id", slotID))
	return nil
}

// RangeEditSlots edits every upcoming and hidden slot starting in [from, to)
// at once. Move shifts the slots by the given number of days, copy inserts
// shifted unassigned duplicates and leaves the originals alone, and delete
// removes the slots together with their selections.
func RangeEditSlots(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, from, to time.Time, days int, action db.RangeEditAction) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if !from.Before(to) {
		return 0, fmt.Errorf("%w: empty range", db.ErrInvalidArgument)
	}

	var touched int
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slots, err := s.ListSlotsInRange(ctx, actor.GroupID, from, to, db.SlotUpcoming, db.SlotHidden)
		if err != nil {
			return err
		}
		touched = len(slots)

		for _, slot := range slots {
			switch action {
			case db.RangeCopy:
				copied := slot
				copied.ID = uuid.New().String()
				copied.PerformerID = nil
				copied.Start = slot.Start.AddDate(0, 0, days)
				copied.End = slot.End.AddDate(0, 0, days)
				if err := s.InsertSlot(ctx, copied); err != nil {
					return err
				}
			case db.RangeMove:
				start := slot.Start.AddDate(0, 0, days)
				end := slot.End.AddDate(0, 0, days)
				if err := s.UpdateSlot(ctx, slot.ID, db.SlotPatch{Start: &start, End: &end}); err != nil {
					return err
				}
			case db.RangeDelete:
				if err := s.DeleteSelectionsBySlot(ctx, slot.ID); err != nil {
					return err
				}
				if err := s.DeleteSlot(ctx, slot.ID); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: unknown range edit action %q", db.ErrInvalidArgument, action)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to range edit slots: %w", err)
	}

	logger.Info("Range edited slots",
		zap.String("action", string(action)),
		zap.Int("slots", touched),
		zap.Int("days", days))
	return touched, nil
}

// SetPerformer sets or clears the performer of a slot. Anyone may adjust a
// published slot, covering swaps after the schedule is out; upcoming and
// hidden slots are admin territory. Changing the performer of a published
// typed slot moves one ledger count from the old performer to the new one so
// the fairness totals follow reality.
func SetPerformer(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, slotID string, performerID *string) error {
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slot, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, slot.GroupID); err != nil {
			return err
		}
		if slot.State != db.SlotPublished && !actor.Admin {
			return fmt.Errorf("%w: only admins may assign unpublished slots", db.ErrPermissionDenied)
		}
		if performerID != nil {
			performer, err := s.GetUser(ctx, *performerID)
			if err != nil {
				return err
			}
			if err := inGroup(actor, performer.GroupID); err != nil {
				return err
			}
		}

		if slot.State == db.SlotPublished && slot.TypeID != nil && !sameID(slot.PerformerID, performerID) {
			if slot.PerformerID != nil {
				if err := s.ApplyCountDelta(ctx, *slot.PerformerID, *slot.TypeID, -1); err != nil {
					return err
				}
			}
			if performerID != nil {
				if err := s.ApplyCountDelta(ctx, *performerID, *slot.TypeID, 1); err != nil {
					return err
				}
			}
		}

		return s.SetSlotPerformer(ctx, slotID, performerID)
	})
	if err != nil {
		return fmt.Errorf("failed to set performer: %w", err)
	}

	logger.Info("Set performer",
		zap.String("slot_id", slotID),
		zap.Stringp("performer_id", performerID))
	return nil
}
