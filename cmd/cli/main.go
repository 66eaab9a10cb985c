package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/cmd/cli/commands"
	"github.com/EbbDrop/Perma/internal/config"
	"github.com/EbbDrop/Perma/pkg/postgres"
	"github.com/EbbDrop/Perma/pkg/utils/logging"
)

var (
	configPath string
	actorRef   string
	verbose    bool

	app      *commands.AppContext
	database *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "perma",
		Short: "Perma - duty schedules and fair rotation for shared living groups",
		Long: `Perma manages the weekly duty schedule of a shared living group:
slots, selections, automatic assignment by fairness counts, and the
weekly publish that rolls the schedule forward.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
			if database != nil {
				database.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&actorRef, "as", "", "Acting user (name or id)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on the console")

	rootCmd.AddCommand(commands.GroupCmd(appRef()))
	rootCmd.AddCommand(commands.UserCmd(appRef()))
	rootCmd.AddCommand(commands.TypeCmd(appRef()))
	rootCmd.AddCommand(commands.EditCountsCmd(appRef()))
	rootCmd.AddCommand(commands.SlotCmd(appRef()))
	rootCmd.AddCommand(commands.SeedSlotsCmd(appRef()))
	rootCmd.AddCommand(commands.AutoAssignCmd(appRef()))
	rootCmd.AddCommand(commands.PublishCmd(appRef()))
	rootCmd.AddCommand(commands.SelectCmd(appRef()))
	rootCmd.AddCommand(commands.DeselectCmd(appRef()))
	rootCmd.AddCommand(commands.SelectionsCmd(appRef()))
	rootCmd.AddCommand(commands.NoteCmd(appRef()))
	rootCmd.AddCommand(commands.CountsCmd(appRef()))
	rootCmd.AddCommand(commands.WaitingOnCmd(appRef()))
	rootCmd.AddCommand(commands.OverviewCmd(appRef()))
	rootCmd.AddCommand(commands.ServeCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext. Commands capture the pointer at
// construction time; initApp fills it in before any command runs.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, and database
func initApp() error {
	ctx := context.Background()
	a := appRef()
	a.Ctx = ctx
	a.ActorRef = actorRef

	logger, err := logging.InitLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Logger = logger

	logger.Debug("Loading configuration")
	if configPath != "" {
		a.Cfg, err = config.LoadFromPath(configPath)
	} else {
		a.Cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a.Location, err = a.Cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}

	logger.Debug("Connecting to database")
	database, err = postgres.NewDB(ctx, a.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.Database = database

	logger.Debug("Application initialized", zap.String("timezone", a.Location.String()))
	return nil
}
