package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/finchat/internal/infra/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath != "" {
				a.cfg.DBPath = dbPath
			}
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := sqlite.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: schema version %d\n", a.cfg.DBPath, v) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database file (default $DB_PATH)")
	return cmd
}
