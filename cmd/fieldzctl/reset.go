package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrodz/fieldz/internal/dbconfig"
	"github.com/mrodz/fieldz/internal/store"
)

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the active profile's dataset (dev only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, _ := strconv.ParseBool(getEnv("HAS_DB_RESET_BUTTON", "false"))
			if !enabled {
				return errors.New("destructive reset is disabled; set HAS_DB_RESET_BUTTON=true")
			}

			ctx := cmd.Context()
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			active := manager.Active()

			database, err := sql.Open("pgx", dbconfig.NewConfigFromEnv().DSN())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			if err := store.DropSchema(ctx, database, active.Schema); err != nil {
				return err
			}
			if err := store.EnsureSchema(ctx, database, active.Schema); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reset profile %q (schema %s)\n", active.Name, active.Schema)
			return nil
		},
	}
}
