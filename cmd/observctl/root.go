package main

import (
	"context"
	"fmt"

	"github.com/ZertGraf/observ/internal/bootstrap"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "observctl",
	Short: "Operate the observ project service",
	Long: `observctl runs operator tasks against the store configured for the
observ service. It reads the same environment and .env file as the server.`,
	SilenceUsage: true,
	Version:      bootstrap.Version,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(userCmd)
}

// openApp loads configuration and connects storage without serving HTTP.
func openApp(ctx context.Context, runMigrations bool) (*bootstrap.Application, func(), error) {
	app, err := bootstrap.New()
	if err != nil {
		return nil, nil, err
	}

	if err = app.InitStorage(ctx, runMigrations); err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	closeFn := func() {
		if app.Postgres != nil {
			app.Postgres.Close()
		}
	}
	return app, closeFn, nil
}
