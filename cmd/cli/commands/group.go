package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
)

// GroupCmd creates the group command with its subcommands
func GroupCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage living groups",
	}
	cmd.AddCommand(groupCreateCmd(app))
	cmd.AddCommand(groupListCmd(app))
	cmd.AddCommand(groupInfoCmd(app))
	return cmd
}

func groupCreateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <admin-name>",
		Short: "Create a new group with its first admin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, admin, err := services.CreateGroup(app.Ctx, app.Database, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Created group %q (%s)\n", group.Name, group.ID)
			fmt.Printf("Admin %q (%s)\n", admin.Name, admin.ID)
			return nil
		},
	}
}

func groupListCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := services.ListGroups(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%s  %s\n", g.ID, g.Name)
			}
			return nil
		},
	}
}

func groupInfoCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the acting user's group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			group, err := services.GroupInfo(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", group.ID, group.Name)
			return nil
		},
	}
}
