package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// TypeCounts is one row of the counts table: a slot type with the count each
// member has accumulated for it
type TypeCounts struct {
	Type   db.SlotType
	Counts map[string]int
	Sum    int
}

// CountsTableData is the fairness overview for a group
type CountsTableData struct {
	// Users on the roster, sorted by name. Assisted members whose counts are
	// all zero are hidden.
	Users []db.User
	Types []TypeCounts
	// OutOf is the number of members that take part in the fair share, the
	// denominator for a per-type average
	OutOf int
}

// CountsTable builds the fairness overview: per slot type, every member's
// cumulative count. Sums and the participant total leave assisted members out
// so averages reflect who actually shares the load.
func CountsTable(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) (*CountsTableData, error) {
	var data CountsTableData
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		users, err := s.ListUsersByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		types, err := s.ListSlotTypesByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}

		assisted := make(map[string]bool, len(users))
		for _, u := range users {
			assisted[u.ID] = u.Assisted
			if !u.Assisted {
				data.OutOf++
			}
		}

		hasCounts := make(map[string]bool, len(users))
		data.Types = make([]TypeCounts, 0, len(types))
		for _, t := range types {
			rows, err := s.ListCountsByType(ctx, t.ID)
			if err != nil {
				return err
			}

			tc := TypeCounts{Type: t, Counts: make(map[string]int, len(rows))}
			for _, row := range rows {
				tc.Counts[row.UserID] = row.Count
				if row.Count != 0 {
					hasCounts[row.UserID] = true
				}
				if !assisted[row.UserID] {
					tc.Sum += row.Count
				}
			}
			data.Types = append(data.Types, tc)
		}

		// Assisted members stay visible only while they still carry history.
		data.Users = make([]db.User, 0, len(users))
		for _, u := range users {
			if u.Assisted && !hasCounts[u.ID] {
				continue
			}
			data.Users = append(data.Users, u)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build counts table: %w", err)
	}

	logger.Debug("Built counts table",
		zap.Int("users", len(data.Users)),
		zap.Int("types", len(data.Types)))
	return &data, nil
}

// WaitingOn lists the members who have not filled in their availability yet:
// no note, no selection, and not assisted
func WaitingOn(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) ([]db.User, error) {
	var waiting []db.User
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		users, err := s.ListUsersByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Assisted || u.Note != nil {
				continue
			}
			selected, err := s.UserHasSelection(ctx, u.ID)
			if err != nil {
				return err
			}
			if !selected {
				waiting = append(waiting, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting users: %w", err)
	}
	return waiting, nil
}

// SlotWithSelections is an upcoming slot with the members split by whether
// they have selected it
type SlotWithSelections struct {
	Slot db.Slot
	// Selected in selection order
	Selected []db.User
	// NotSelected lists the non-assisted members who have not opted in
	NotSelected []db.User
}

// UpcomingSlotsWithSelected retrieves the group's upcoming slots with each
// slot's selectors resolved to users. This is the admin's working view when
// assigning a week by hand.
func UpcomingSlotsWithSelected(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) ([]SlotWithSelections, error) {
	var out []SlotWithSelections
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		slots, err := s.ListSlotsByState(ctx, actor.GroupID, db.SlotUpcoming)
		if err != nil {
			return err
		}
		users, err := s.ListUsersByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		byID := make(map[string]db.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}

		out = make([]SlotWithSelections, 0, len(slots))
		for _, slot := range slots {
			selections, err := s.ListSelectionsBySlot(ctx, slot.ID)
			if err != nil {
				return err
			}

			entry := SlotWithSelections{Slot: slot}
			selected := make(map[string]bool, len(selections))
			for _, sel := range selections {
				u, ok := byID[sel.UserID]
				if !ok {
					continue
				}
				selected[sel.UserID] = true
				entry.Selected = append(entry.Selected, u)
			}
			for _, u := range users {
				if !selected[u.ID] && !u.Assisted {
					entry.NotSelected = append(entry.NotSelected, u)
				}
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming slots: %w", err)
	}
	return out, nil
}

// ListSlots retrieves the group's slots in the given states, ordered by start
// time
func ListSlots(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, states ...db.SlotState) ([]db.Slot, error) {
	var slots []db.Slot
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		var err error
		slots, err = s.ListSlotsByState(ctx, actor.GroupID, states...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// CalendarSlot is one published slot prepared for calendar export
type CalendarSlot struct {
	Slot          db.Slot
	PerformerName string
	Mine          bool
}

// CalendarData is everything the calendar boundary needs to render a feed
type CalendarData struct {
	Group db.Group
	User  db.User
	Slots []CalendarSlot
}

// SlotsForCalendar retrieves the published schedule for a calendar feed.
// Feeds are keyed by group and user id rather than by a session, so the pair
// is validated against each other instead of against an acting user.
func SlotsForCalendar(ctx context.Context, runner db.TxRunner, logger *zap.Logger, groupID, userID string) (*CalendarData, error) {
	var data CalendarData
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		group, err := s.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		user, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.GroupID != group.ID {
			return fmt.Errorf("%w: user %s is not in group %s", db.ErrInvalidReference, userID, groupID)
		}
		data.Group = group
		data.User = user

		slots, err := s.ListSlotsByState(ctx, groupID, db.SlotPublished)
		if err != nil {
			return err
		}
		users, err := s.ListUsersByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Name
		}

		data.Slots = make([]CalendarSlot, 0, len(slots))
		for _, slot := range slots {
			cs := CalendarSlot{Slot: slot}
			if slot.PerformerID != nil {
				cs.PerformerName = names[*slot.PerformerID]
				cs.Mine = *slot.PerformerID == userID
			}
			data.Slots = append(data.Slots, cs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar slots: %w", err)
	}

	logger.Debug("Fetched calendar slots",
		zap.String("group_id", groupID),
		zap.String("user_id", userID),
		zap.Int("slots", len(data.Slots)))
	return &data, nil
}
