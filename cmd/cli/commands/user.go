package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
	"github.com/EbbDrop/Perma/pkg/db"
)

// UserCmd creates the user command with its subcommands
func UserCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage group members",
	}
	cmd.AddCommand(userAddCmd(app))
	cmd.AddCommand(userListCmd(app))
	cmd.AddCommand(userUpdateCmd(app))
	cmd.AddCommand(userRemoveCmd(app))
	return cmd
}

func userAddCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member to the acting admin's group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			user, err := services.AddUser(app.Ctx, app.Database, actor, app.Logger, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Added %q (%s)\n", user.Name, user.ID)
			return nil
		},
	}
}

func userListCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the members of the group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			users, err := services.ListUsers(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}
			for _, u := range users {
				flags := ""
				if u.Admin {
					flags += " [admin]"
				}
				if u.Assisted {
					flags += " [assisted]"
				}
				fmt.Printf("%s  %s%s\n", u.ID, u.Name, flags)
			}
			return nil
		},
	}
}

func userUpdateCmd(app *AppContext) *cobra.Command {
	var (
		name     string
		admin    bool
		noAdmin  bool
		assisted bool
		regular  bool
	)
	cmd := &cobra.Command{
		Use:   "update <user>",
		Short: "Update a member's name or flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			user, err := app.ResolveUserRef(actor, args[0])
			if err != nil {
				return err
			}

			var patch db.UserPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if admin {
				v := true
				patch.Admin = &v
			} else if noAdmin {
				v := false
				patch.Admin = &v
			}
			if assisted {
				v := true
				patch.Assisted = &v
			} else if regular {
				v := false
				patch.Assisted = &v
			}

			if err := services.UpdateUser(app.Ctx, app.Database, actor, app.Logger, user.ID, patch); err != nil {
				return err
			}
			fmt.Printf("Updated %q\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin rights")
	cmd.Flags().BoolVar(&noAdmin, "no-admin", false, "Revoke admin rights")
	cmd.Flags().BoolVar(&assisted, "assisted", false, "Mark as assisted")
	cmd.Flags().BoolVar(&regular, "no-assisted", false, "Unmark as assisted")
	cmd.MarkFlagsMutuallyExclusive("admin", "no-admin")
	cmd.MarkFlagsMutuallyExclusive("assisted", "no-assisted")
	return cmd
}

func userRemoveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user>",
		Short: "Remove a member from the group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			user, err := app.ResolveUserRef(actor, args[0])
			if err != nil {
				return err
			}
			if err := services.DeleteUser(app.Ctx, app.Database, actor, app.Logger, user.ID); err != nil {
				return err
			}
			fmt.Printf("Removed %q\n", user.Name)
			return nil
		},
	}
}
