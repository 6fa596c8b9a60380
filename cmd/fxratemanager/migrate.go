package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/fxratemanager/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(use, short string, fn func(cmd *cobra.Command, driver, dsn string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if !migrate.Supported(cfg.DB.Driver) {
					return fmt.Errorf("driver %q has no migrations", cfg.DB.Driver)
				}
				return fn(cmd, cfg.DB.Driver, cfg.DB.DSN)
			},
		}
	}

	cmd.AddCommand(
		run("up", "Apply all pending migrations", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Up(cmd.Context(), driver, dsn)
		}),
		run("down", "Roll back the latest migration", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Down(cmd.Context(), driver, dsn)
		}),
		run("status", "Show migration status", func(cmd *cobra.Command, driver, dsn string) error {
			return migrate.Status(cmd.Context(), driver, dsn)
		}),
		run("version", "Print the current schema version", func(cmd *cobra.Command, driver, dsn string) error {
			v, err := migrate.Version(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}),
	)
	return cmd
}
