package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
)

// SelectCmd creates the select command
func SelectCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <slot-id>...",
		Short: "Opt in to perform one or more upcoming slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			for _, slotID := range args {
				if err := services.SetSelectedSlot(app.Ctx, app.Database, actor, app.Logger, slotID, true); err != nil {
					return err
				}
			}
			fmt.Printf("Selected %d slots\n", len(args))
			return nil
		},
	}
}

// DeselectCmd creates the deselect command
func DeselectCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deselect <slot-id>...",
		Short: "Withdraw from one or more upcoming slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			for _, slotID := range args {
				if err := services.SetSelectedSlot(app.Ctx, app.Database, actor, app.Logger, slotID, false); err != nil {
					return err
				}
			}
			fmt.Printf("Deselected %d slots\n", len(args))
			return nil
		},
	}
}

// SelectionsCmd creates the selections command
func SelectionsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "selections [user]",
		Short: "Show which slots a member has selected",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			userID := ""
			if len(args) == 1 {
				user, err := app.ResolveUserRef(actor, args[0])
				if err != nil {
					return err
				}
				userID = user.ID
			}
			slotIDs, err := services.SelectedSlots(app.Ctx, app.Database, actor, app.Logger, userID)
			if err != nil {
				return err
			}
			for _, id := range slotIDs {
				fmt.Println(id)
			}
			return nil
		},
	}
}

// NoteCmd creates the note command with its subcommands
func NoteCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage the acting user's availability note",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>...",
		Short: "Set the availability note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			if err := services.SetNote(app.Ctx, app.Database, actor, app.Logger, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Println("Note saved")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the availability note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			note, err := services.Note(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}
			if note == nil {
				fmt.Println("(no note)")
			} else {
				fmt.Println(*note)
			}
			return nil
		},
	})
	return cmd
}
