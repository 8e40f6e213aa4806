package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grid-nexus/nexus-api/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withDB(func(a *app.App, args []string) error {
		return a.DB.RunMigrations(a.Config.Store.MigrationsPath)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: withDB(func(a *app.App, args []string) error {
		return a.DB.MigrateDown(a.Config.Store.MigrationsPath)
	}),
}

// Example: nexusctl migrate to 1
var migrateToCmd = &cobra.Command{
	Use:   "to <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(a *app.App, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return a.DB.MigrateToVersion(a.Config.Store.MigrationsPath, uint(version))
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateToCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withDB opens the app and requires the postgres driver
func withDB(fn func(a *app.App, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if a.DB == nil {
			return fmt.Errorf("migrations need STORE_DRIVER=postgres, got %s", a.Config.Store.Driver)
		}
		return fn(a, args)
	}
}
