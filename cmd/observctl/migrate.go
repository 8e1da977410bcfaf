package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply every embedded schema migration newer than the version recorded
in the migrations table. Requires STORAGE_DRIVER=postgres.

Examples:
  observctl migrate          # apply pending migrations
  observctl migrate status   # show current and latest version`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied and latest schema version",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	app, closeFn, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeFn()

	if app.Migrator == nil {
		return fmt.Errorf("migrations need the postgres storage driver, got %q", app.Config.StorageDriver)
	}

	if err = app.Migrator.RunMigrations(cmd.Context()); err != nil {
		return err
	}

	status, err := app.Migrator.Status(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", status.Current)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	app, closeFn, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeFn()

	if app.Migrator == nil {
		return fmt.Errorf("migrations need the postgres storage driver, got %q", app.Config.StorageDriver)
	}

	status, err := app.Migrator.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "current: %d\nlatest:  %d\npending: %d\n",
		status.Current, status.Latest, status.Pending())
	return nil
}
