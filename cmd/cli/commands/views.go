package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/EbbDrop/Perma/pkg/core/services"
)

// CountsCmd creates the counts command, rendering the fairness table
func CountsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show the fairness counts per member and slot type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			data, err := services.CountsTable(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			header := []string{"Member"}
			for _, tc := range data.Types {
				header = append(header, tc.Type.Name)
			}
			fmt.Fprintln(w, strings.Join(header, "\t"))

			for _, u := range data.Users {
				row := []string{u.Name}
				if u.Assisted {
					row[0] += " (assisted)"
				}
				for _, tc := range data.Types {
					row = append(row, fmt.Sprintf("%d", tc.Counts[u.ID]))
				}
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}

			totals := []string{fmt.Sprintf("Total (of %d)", data.OutOf)}
			for _, tc := range data.Types {
				totals = append(totals, fmt.Sprintf("%d", tc.Sum))
			}
			fmt.Fprintln(w, strings.Join(totals, "\t"))
			return w.Flush()
		},
	}
}

// WaitingOnCmd creates the waiting-on command
func WaitingOnCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "waiting-on",
		Short: "List members who have not responded for the next week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			waiting, err := services.WaitingOn(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}
			if len(waiting) == 0 {
				fmt.Println("Everyone has responded")
				return nil
			}
			for _, u := range waiting {
				fmt.Println(u.Name)
			}
			return nil
		},
	}
}

// OverviewCmd creates the overview command, the admin's pre-publish view
func OverviewCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show upcoming slots with who selected them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}
			slots, err := services.UpcomingSlotsWithSelected(app.Ctx, app.Database, actor, app.Logger)
			if err != nil {
				return err
			}

			for _, entry := range slots {
				performer := "unassigned"
				if entry.Slot.PerformerID != nil {
					if u, err := app.ResolveUserRef(actor, *entry.Slot.PerformerID); err == nil {
						performer = u.Name
					}
				}
				fmt.Printf("%s  %s  %s [%s]\n",
					entry.Slot.Start.In(app.Location).Format(minuteLayout), entry.Slot.Name, entry.Slot.ID, performer)

				names := make([]string, len(entry.Selected))
				for i, u := range entry.Selected {
					names[i] = u.Name
				}
				fmt.Printf("  selected:     %s\n", strings.Join(names, ", "))

				names = names[:0]
				for _, u := range entry.NotSelected {
					names = append(names, u.Name)
				}
				fmt.Printf("  not selected: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
