package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
)

// AutoAssignCmd creates the auto-assign command
func AutoAssignCmd(app *AppContext) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "auto-assign",
		Short: "Assign performers to upcoming slots from their selections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			result, err := services.AutoAssign(app.Ctx, app.Database, actor, app.Logger, replace)
			if err != nil {
				return err
			}
			fmt.Printf("Assigned %d slots, skipped %d\n", result.Assigned, result.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Reassign slots that already have a performer")
	return cmd
}

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the upcoming week and roll the schedule forward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			result, err := services.PublishWeek(app.Ctx, app.Database, actor, app.Logger, time.Now(), app.Location)
			if err != nil {
				return err
			}
			fmt.Printf("Published %d slots, archived %d, rolled %d forward\n",
				result.Published, result.Archived, result.Rolled)
			return nil
		},
	}
}

// SeedSlotsCmd creates the seed-slots command, expanding the configured slot
// templates over a date range
func SeedSlotsCmd(app *AppContext) *cobra.Command {
	var (
		from string
		to   string
	)
	cmd := &cobra.Command{
		Use:   "seed-slots",
		Short: "Create slots from the configured templates over a date range",
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

			templates := make([]services.SlotTemplate, len(app.Cfg.SlotTemplates))
			for i, t := range app.Cfg.SlotTemplates {
				templates[i] = services.SlotTemplate{
					RRule:      t.RRule,
					Name:       t.Name,
					TypeName:   t.Type,
					StartClock: t.Start,
					Duration:   time.Duration(t.DurationMinutes) * time.Minute,
					Hidden:     t.Hidden,
				}
			}

			created, err := services.SeedSlots(app.Ctx, app.Database, actor, app.Logger, templates, fromTime, toTime, app.Location)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d slots\n", created)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Range start (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (exclusive)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}
