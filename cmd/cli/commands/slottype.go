package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
	"github.com/EbbDrop/Perma/pkg/db"
)

// TypeCmd creates the type command with its subcommands
func TypeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage slot types",
	}
	cmd.AddCommand(typeAddCmd(app))
	cmd.AddCommand(typeRenameCmd(app))
	cmd.AddCommand(typeRemoveCmd(app))
	cmd.AddCommand(typeTransferCmd(app))
	return cmd
}

func typeAddCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Add a slot type, optionally naming it right away",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			slotType, err := services.AddSlotType(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := services.RenameSlotType(app.Ctx, app.Database, actor, app.Logger, slotType.ID, args[0]); err != nil {
					return err
				}
				slotType.Name = args[0]
			}
			fmt.Printf("Added slot type %q (%s)\n", slotType.Name, slotType.ID)
			return nil
		},
	}
}

func typeRenameCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <type> <name>",
		Short: "Rename a slot type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			slotType, err := app.ResolveTypeRef(actor, args[0])
			if err != nil {
				return err
			}
			if err := services.RenameSlotType(app.Ctx, app.Database, actor, app.Logger, slotType.ID, args[1]); err != nil {
				return err
			}
			fmt.Printf("Renamed to %q\n", args[1])
			return nil
		},
	}
}

func typeRemoveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <type>",
		Short: "Remove a slot type, untyping its slots and dropping its counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			slotType, err := app.ResolveTypeRef(actor, args[0])
			if err != nil {
				return err
			}
			if err := services.DeleteSlotType(app.Ctx, app.Database, actor, app.Logger, slotType.ID); err != nil {
				return err
			}
			fmt.Printf("Removed slot type %q\n", slotType.Name)
			return nil
		},
	}
}

func typeTransferCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from-type> <to-type>",
		Short: "Move all fairness counts from one type onto another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			from, err := app.ResolveTypeRef(actor, args[0])
			if err != nil {
				return err
			}
			to, err := app.ResolveTypeRef(actor, args[1])
			if err != nil {
				return err
			}
			if err := services.TransferCounts(app.Ctx, app.Database, actor, app.Logger, from.ID, to.ID); err != nil {
				return err
			}
			fmt.Printf("Transferred counts from %q to %q\n", from.Name, to.Name)
			return nil
		},
	}
}

// EditCountsCmd creates the edit-counts command. Each argument is one
// user=type=delta triple; entries are applied in one transaction.
func EditCountsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit-counts <user=type=delta>...",
		Short: "Apply manual corrections to the fairness counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			updates := make([]db.CountUpdate, 0, len(args))
			for _, arg := range args {
				parts := strings.SplitN(arg, "=", 3)
				if len(parts) != 3 {
					return fmt.Errorf("%w: expected user=type=delta, got %q", db.ErrInvalidArgument, arg)
				}
				user, err := app.ResolveUserRef(actor, parts[0])
				if err != nil {
					return err
				}
				slotType, err := app.ResolveTypeRef(actor, parts[1])
				if err != nil {
					return err
				}
				delta, err := strconv.Atoi(parts[2])
				if err != nil {
					return fmt.Errorf("%w: bad delta %q", db.ErrInvalidArgument, parts[2])
				}
				updates = append(updates, db.CountUpdate{UserID: user.ID, TypeID: slotType.ID, Delta: delta})
			}

			if err := services.BulkEditCounts(app.Ctx, app.Database, actor, app.Logger, updates); err != nil {
				return err
			}
			fmt.Printf("Applied %d count updates\n", len(updates))
			return nil
		},
	}
}
