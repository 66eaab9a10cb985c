package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
	"github.com/EbbDrop/Perma/pkg/db"
)

const dayLayout = "2006-01-02"
const minuteLayout = "2006-01-02 15:04"

func parseLocalTime(app *AppContext, s string) (time.Time, error) {
	if t, err := time.ParseInLocation(minuteLayout, s, app.Location); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dayLayout, s, app.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q, want %q or %q", db.ErrInvalidArgument, s, dayLayout, minuteLayout)
	}
	return t, nil
}

// SlotCmd creates the slot command with its subcommands
func SlotCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage schedule slots",
	}
	cmd.AddCommand(slotNewCmd(app))
	cmd.AddCommand(slotListCmd(app))
	cmd.AddCommand(slotUpdateCmd(app))
	cmd.AddCommand(slotRemoveCmd(app))
	cmd.AddCommand(slotRangeEditCmd(app))
	cmd.AddCommand(slotAssignCmd(app))
	return cmd
}

func slotNewCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a blank upcoming slot after the latest one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			slot, err := services.NewUpcomingSlot(app.Ctx, app.Database, actor, app.Logger, time.Now(), app.Location)
			if err != nil {
				return err
			}
			fmt.Printf("Created slot %s starting %s\n", slot.ID, slot.Start.In(app.Location).Format(minuteLayout))
			return nil
		},
	}
}

func slotListCmd(app *AppContext) *cobra.Command {
	var stateFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the group's slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			states := []db.SlotState{db.SlotUpcoming, db.SlotHidden, db.SlotPublished}
			if len(stateFlags) > 0 {
				states = states[:0]
				for _, s := range stateFlags {
					state, err := db.ParseSlotState(s)
					if err != nil {
						return err
					}
					states = append(states, state)
				}
			}

			slots, err := services.ListSlots(app.Ctx, app.Database, actor, app.Logger, states...)
			if err != nil {
				return err
			}
			for _, slot := range slots {
				performer := "-"
				if slot.PerformerID != nil {
					if u, err := app.ResolveUserRef(actor, *slot.PerformerID); err == nil {
						performer = u.Name
					}
				}
				fmt.Printf("%s  %-10s %s  %-20s %s\n",
					slot.ID, slot.State, slot.Start.In(app.Location).Format(minuteLayout), slot.Name, performer)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&stateFlags, "state", nil, "Filter by state (upcoming, hidden, published)")
	return cmd
}

func slotUpdateCmd(app *AppContext) *cobra.Command {
	var (
		name      string
		typeRef   string
		clearType bool
		start     string
		end       string
		showTime  bool
		hideTime  bool
		state     string
	)
	cmd := &cobra.Command{
		Use:   "update <slot-id>",
		Short: "Edit an upcoming or hidden slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			var patch db.SlotPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if clearType {
				patch.ClearType = true
			} else if typeRef != "" {
				slotType, err := app.ResolveTypeRef(actor, typeRef)
				if err != nil {
					return err
				}
				patch.TypeID = &slotType.ID
			}
			if start != "" {
				t, err := parseLocalTime(app, start)
				if err != nil {
					return err
				}
				patch.Start = &t
			}
			if end != "" {
				t, err := parseLocalTime(app, end)
				if err != nil {
					return err
				}
				patch.End = &t
			}
			if showTime {
				v := true
				patch.ShowTime = &v
			} else if hideTime {
				v := false
				patch.ShowTime = &v
			}
			if state != "" {
				parsed, err := db.ParseSlotState(state)
				if err != nil {
					return err
				}
				patch.State = &parsed
			}

			if err := services.UpdateSlot(app.Ctx, app.Database, actor, app.Logger, args[0], patch); err != nil {
				return err
			}
			fmt.Println("Updated slot")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New slot name")
	cmd.Flags().StringVar(&typeRef, "type", "", "Slot type name or id")
	cmd.Flags().BoolVar(&clearType, "clear-type", false, "Remove the slot type")
	cmd.Flags().StringVar(&start, "start", "", "New start time")
	cmd.Flags().StringVar(&end, "end", "", "New end time")
	cmd.Flags().BoolVar(&showTime, "show-time", false, "Show the time of day in calendars")
	cmd.Flags().BoolVar(&hideTime, "hide-time", false, "Render as an all-day entry in calendars")
	cmd.Flags().StringVar(&state, "state", "", "New state (upcoming or hidden)")
	cmd.MarkFlagsMutuallyExclusive("type", "clear-type")
	cmd.MarkFlagsMutuallyExclusive("show-time", "hide-time")
	return cmd
}

func slotRemoveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <slot-id>",
		Short: "Delete an upcoming or hidden slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			if err := services.DeleteSlot(app.Ctx, app.Database, actor, app.Logger, args[0]); err != nil {
				return err
			}
			fmt.Println("Removed slot")
			return nil
		},
	}
}

func slotRangeEditCmd(app *AppContext) *cobra.Command {
	var (
		from   string
		to     string
		days   int
		action string
	)
	cmd := &cobra.Command{
		Use:   "range-edit",
		Short: "Move, copy or delete every editable slot in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			fromTime, err := parseLocalTime(app, from)
			if err != nil {
				return err
			}
			toTime, err := parseLocalTime(app, to)
			if err != nil {
				return err
			}
			parsedAction, err := db.ParseRangeEditAction(action)
			if err != nil {
				return err
			}

			n, err := services.RangeEditSlots(app.Ctx, app.Database, actor, app.Logger, fromTime, toTime, days, parsedAction)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d slots\n", parsedAction, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Range start (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (exclusive)")
	cmd.Flags().IntVar(&days, "days", 0, "Days to shift by (move and copy)")
	cmd.Flags().StringVar(&action, "action", "", "move, copy or delete")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("action")
	return cmd
}

func slotAssignCmd(app *AppContext) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "assign <slot-id> [performer]",
		Short: "Set or clear the performer of a slot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			var performerID *string
			switch {
			case clear && len(args) == 1:
			case !clear && len(args) == 2:
				user, err := app.ResolveUserRef(actor, args[1])
				if err != nil {
					return err
				}
				performerID = &user.ID
			default:
				return fmt.Errorf("%w: give a performer or --clear", db.ErrInvalidArgument)
			}

			if err := services.SetPerformer(app.Ctx, app.Database, actor, app.Logger, args[0], performerID); err != nil {
				return err
			}
			if performerID == nil {
				fmt.Println("Cleared performer")
			} else {
				fmt.Printf("Assigned %q\n", args[1])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the current performer")
	return cmd
}
