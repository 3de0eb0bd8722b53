package main

import (
	"fmt"
	"os"

	"github.com/dukerupert/loomworks/internal"
	"github.com/dukerupert/loomworks/internal/bootstrap"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL migrations",
		Long: `Apply pending PostgreSQL migrations from DATABASE_URL.

--down reverts the most recent migration. --status prints the
current schema version without changing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.NewConfig()
			if err != nil {
				return fmt.Errorf("config initialization failed: %w", err)
			}
			logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

			pool, err := pgxpool.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to create connection pool: %w", err)
			}
			defer pool.Close()

			switch {
			case status:
				db := stdlib.OpenDBFromPool(pool)
				defer db.Close()
				v, err := internal.MigrationVersion(db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			case down:
				db := stdlib.OpenDBFromPool(pool)
				defer db.Close()
				if err := internal.RollbackMigration(db); err != nil {
					return err
				}
				logger.Info("Rolled back one migration")
			default:
				if err := bootstrap.Migrate(pool); err != nil {
					return err
				}
				logger.Info("Database migrations completed successfully")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Revert the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "Print the current schema version")
	cmd.MarkFlagsMutuallyExclusive("down", "status")

	return cmd
}
