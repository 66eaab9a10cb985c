package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// PublishResult summarizes one weekly publish
type PublishResult struct {
	Archived  int
	Published int
	Rolled    int
}

type countPair struct {
	performerID string
	typeID      string
}

// PublishWeek rotates the group's schedule forward by one week, all in one
// transaction:
//
//   - published slots starting before today are deleted
//   - every upcoming and hidden slot spawns an unassigned copy one week later
//     in the same state, so the schedule shape repeats
//   - upcoming slots become published, hidden slots are dropped
//   - selections on the processed slots are cleared
//   - the ledger is credited once per (performer, type) pair over the
//     assigned typed slots that went out, pre-aggregated so a performer with
//     several slots of one type still produces a single delta
//   - every member's availability note is cleared for the new round
//
// "Today" is resolved in the group's configured timezone.
func PublishWeek(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, now time.Time, loc *time.Location) (*PublishResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	local := now.In(loc)
	startOfToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var result PublishResult
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		before, err := s.ListSlotsByState(ctx, actor.GroupID, db.SlotPublished)
		if err != nil {
			return err
		}
		if err := s.DeletePublishedBefore(ctx, actor.GroupID, startOfToday); err != nil {
			return err
		}
		after, err := s.ListSlotsByState(ctx, actor.GroupID, db.SlotPublished)
		if err != nil {
			return err
		}
		result.Archived = len(before) - len(after)

		slots, err := s.ListSlotsByState(ctx, actor.GroupID, db.SlotUpcoming, db.SlotHidden)
		if err != nil {
			return err
		}

		pending := make(map[countPair]int)
		for _, slot := range slots {
			next := slot
			next.ID = uuid.New().String()
			next.PerformerID = nil
			next.Start = slot.Start.AddDate(0, 0, 7)
			next.End = slot.End.AddDate(0, 0, 7)
			if err := s.InsertSlot(ctx, next); err != nil {
				return err
			}
			result.Rolled++

			if err := s.DeleteSelectionsBySlot(ctx, slot.ID); err != nil {
				return err
			}

			if slot.State == db.SlotHidden {
				if err := s.DeleteSlot(ctx, slot.ID); err != nil {
					return err
				}
				continue
			}

			if err := s.SetSlotState(ctx, slot.ID, db.SlotPublished); err != nil {
				return err
			}
			result.Published++

			if slot.PerformerID != nil && slot.TypeID != nil {
				pending[countPair{*slot.PerformerID, *slot.TypeID}]++
			}
		}

		// One delta per distinct pair, as the ledger updater requires.
		for pair, n := range pending {
			if err := s.ApplyCountDelta(ctx, pair.performerID, pair.typeID, n); err != nil {
				return err
			}
		}

		return s.ClearNotes(ctx, actor.GroupID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish week: %w", err)
	}

	logger.Info("Published week",
		zap.Int("archived", result.Archived),
		zap.Int("published", result.Published),
		zap.Int("rolled_forward", result.Rolled))
	return &result, nil
}
