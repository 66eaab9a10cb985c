package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// SlotTemplate describes a recurring slot to seed into the schedule. The
// recurrence rule is an RFC 5545 RRULE string; the clock time is applied to
// each occurrence date in the group's timezone.
type SlotTemplate struct {
	RRule      string
	Name       string
	TypeName   string // matched against the group's slot type names; empty for untyped
	StartClock string // "15:04" format
	Duration   time.Duration
	Hidden     bool
}

// SeedSlots expands the templates over [from, to) and inserts the resulting
// slots as upcoming, or hidden when the template says so. It returns the
// number of slots created. Seeding the same range twice creates duplicates;
// clean up with RangeEditSlots.
func SeedSlots(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, templates []SlotTemplate, from, to time.Time, loc *time.Location) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if !from.Before(to) {
		return 0, fmt.Errorf("%w: empty range", db.ErrInvalidArgument)
	}

	type expanded struct {
		template SlotTemplate
		starts   []time.Time
	}
	plan := make([]expanded, 0, len(templates))
	for _, t := range templates {
		rule, err := rrule.StrToRRule(t.RRule)
		if err != nil {
			return 0, fmt.Errorf("%w: bad recurrence rule %q: %v", db.ErrInvalidArgument, t.RRule, err)
		}
		rule.DTStart(from.In(loc))

		clock, err := time.Parse("15:04", t.StartClock)
		if err != nil {
			return 0, fmt.Errorf("%w: bad start time %q", db.ErrInvalidArgument, t.StartClock)
		}
		if t.Duration <= 0 {
			return 0, fmt.Errorf("%w: template duration must be positive", db.ErrInvalidArgument)
		}

		var starts []time.Time
		for _, occ := range rule.Between(from.In(loc), to.In(loc), true) {
			start := time.Date(occ.Year(), occ.Month(), occ.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
			if start.Before(to) {
				starts = append(starts, start)
			}
		}
		plan = append(plan, expanded{template: t, starts: starts})
	}

	var created int
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		types, err := s.ListSlotTypesByGroup(ctx, actor.GroupID)
		if err != nil {
			return err
		}
		typeByName := make(map[string]string, len(types))
		for _, t := range types {
			typeByName[t.Name] = t.ID
		}

		for _, exp := range plan {
			var typeID *string
			if exp.template.TypeName != "" {
				id, ok := typeByName[exp.template.TypeName]
				if !ok {
					return fmt.Errorf("%w: no slot type named %q", db.ErrInvalidReference, exp.template.TypeName)
				}
				typeID = &id
			}

			state := db.SlotUpcoming
			if exp.template.Hidden {
				state = db.SlotHidden
			}

			for _, start := range exp.starts {
				slot := db.Slot{
					ID:       uuid.New().String(),
					GroupID:  actor.GroupID,
					TypeID:   typeID,
					Name:     exp.template.Name,
					ShowTime: true,
					Start:    start,
					End:      start.Add(exp.template.Duration),
					State:    state,
				}
				if err := s.InsertSlot(ctx, slot); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed slots: %w", err)
	}

	logger.Info("Seeded slots",
		zap.Int("templates", len(templates)),
		zap.Int("created", created))
	return created, nil
}
