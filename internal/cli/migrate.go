package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := postgres.New(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			schema, err := migrations.For(cfg.Database.Driver)
			if err != nil {
				return err
			}

			applied, err := postgres.RunMigrations(db, postgres.DialectFor(cfg.Database.Driver), schema)
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
			}
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations")
			}
			return nil
		},
	}
}
